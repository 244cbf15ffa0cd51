// Package cooldown gates how often one author may post per guild. State is
// in memory only; a restart clears every cooldown.
package cooldown

import (
	"sync"
	"time"
)

type Manager struct {
	mu    sync.Mutex
	clock Clock
	// guild id -> author id -> instant the author becomes eligible again
	until map[string]map[string]time.Duration
}

func NewManager(clock Clock) *Manager {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &Manager{
		clock: clock,
		until: make(map[string]map[string]time.Duration),
	}
}

// Admit reports whether the author may post now. An admitted call starts a new
// window of cooldownSeconds; a rejected call leaves the running window as is.
// A cooldown of zero admits without recording anything.
func (m *Manager) Admit(guildID, authorID string, cooldownSeconds int) bool {
	if cooldownSeconds <= 0 {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	authors := m.until[guildID]
	if until, ok := authors[authorID]; ok && now < until {
		return false
	}

	if authors == nil {
		authors = make(map[string]time.Duration)
		m.until[guildID] = authors
	}
	authors[authorID] = now + time.Duration(cooldownSeconds)*time.Second
	return true
}

// Remaining returns how long the author still has to wait.
func (m *Manager) Remaining(guildID, authorID string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.until[guildID][authorID]
	if !ok {
		return 0
	}

	remaining := until - m.clock.Now()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clear lifts the author's cooldown.
func (m *Manager) Clear(guildID, authorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	authors, ok := m.until[guildID]
	if !ok {
		return
	}
	delete(authors, authorID)
	if len(authors) == 0 {
		delete(m.until, guildID)
	}
}

// ClearAll lifts every cooldown in the guild.
func (m *Manager) ClearAll(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.until, guildID)
}

// Sweep drops expired entries and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for guildID, authors := range m.until {
		for authorID, until := range authors {
			if now >= until {
				delete(authors, authorID)
				removed++
			}
		}
		if len(authors) == 0 {
			delete(m.until, guildID)
		}
	}
	return removed
}

// Len returns the number of tracked (guild, author) pairs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, authors := range m.until {
		n += len(authors)
	}
	return n
}
