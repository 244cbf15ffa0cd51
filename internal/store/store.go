package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrHashExists     = errors.New("message already has a trace token")
	ErrNegativeStat   = errors.New("counters cannot decrease")
	ErrFlagsRewritten = errors.New("flag lists are append-only")
)

// Store is the repository for all guild configuration. Every mutation is
// written to the backend before it becomes visible to readers.
type Store struct {
	backend Backend

	// docMu guards doc and serializes backend writes.
	docMu sync.Mutex
	doc   *Document

	// guildLocks serializes read-modify-write cycles per guild.
	guildLocks *xsync.MapOf[string, *sync.Mutex]
}

// Open loads the document from backend. A missing document starts a fresh
// state with a new secret; a malformed one is returned as an error.
func Open(backend Backend) (*Store, error) {
	data, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	doc := newDocument()
	if data != nil {
		doc, err = decodeDocument(data)
		if err != nil {
			return nil, err
		}
	}

	s := &Store{
		backend:    backend,
		doc:        doc,
		guildLocks: xsync.NewMapOf[string, *sync.Mutex](),
	}

	if data == nil || doc.HashSecret == "" {
		s.docMu.Lock()
		defer s.docMu.Unlock()
		if err := s.ensureSecretLocked(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) lockGuild(guildID string) func() {
	mu, _ := s.guildLocks.LoadOrCompute(guildID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	return mu.Unlock
}

// saveLocked writes the current document. Callers hold docMu.
func (s *Store) saveLocked() error {
	data, err := s.doc.encode()
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.backend.Save(data); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// commit publishes cfg for guildID if, and only if, the write succeeds.
func (s *Store) commit(guildID string, cfg *GuildConfig) error {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	prev, existed := s.doc.Guilds[guildID]
	s.doc.Guilds[guildID] = cfg
	if err := s.saveLocked(); err != nil {
		if existed {
			s.doc.Guilds[guildID] = prev
		} else {
			delete(s.doc.Guilds, guildID)
		}
		return err
	}
	return nil
}

// snapshot returns a copy of the stored config, or nil when absent.
func (s *Store) snapshot(guildID string) *GuildConfig {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	if cfg, ok := s.doc.Guilds[guildID]; ok {
		return cfg.Clone()
	}
	return nil
}

// Get returns the guild's config, creating and persisting defaults on first use.
func (s *Store) Get(guildID string) (*GuildConfig, error) {
	unlock := s.lockGuild(guildID)
	defer unlock()

	if cfg := s.snapshot(guildID); cfg != nil {
		return cfg, nil
	}

	cfg := NewGuildConfig(guildID)
	if err := s.commit(guildID, cfg); err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Update applies fn to a copy of the guild's config and persists the result.
// If fn returns an error nothing is written. GuildID cannot be changed.
func (s *Store) Update(guildID string, fn func(cfg *GuildConfig) error) (*GuildConfig, error) {
	unlock := s.lockGuild(guildID)
	defer unlock()

	cfg := s.snapshot(guildID)
	if cfg == nil {
		cfg = NewGuildConfig(guildID)
	}

	if err := fn(cfg); err != nil {
		return nil, err
	}
	cfg.GuildID = guildID
	cfg.normalize()

	if err := s.commit(guildID, cfg); err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Put upserts the full config. Counters, trace tokens and flag lists of the
// stored config may only grow.
func (s *Store) Put(cfg *GuildConfig) error {
	next := cfg.Clone()
	_, err := s.Update(cfg.GuildID, func(c *GuildConfig) error {
		if err := checkAppendOnly(c, next); err != nil {
			return err
		}
		*c = *next
		return nil
	})
	return err
}

func checkAppendOnly(prev, next *GuildConfig) error {
	for name, value := range prev.Stats {
		if next.Stats[name] < value {
			return fmt.Errorf("%w: %s", ErrNegativeStat, name)
		}
	}
	for messageID, token := range prev.HashedPosts {
		if next.HashedPosts[messageID] != token {
			return fmt.Errorf("%w: %s", ErrHashExists, messageID)
		}
	}
	if !hasPrefix(next.PIIFlags, prev.PIIFlags) {
		return fmt.Errorf("%w: pii_flags", ErrFlagsRewritten)
	}
	if !hasPrefix(next.CrisisFlags, prev.CrisisFlags) {
		return fmt.Errorf("%w: crisis_flags", ErrFlagsRewritten)
	}
	return nil
}

func hasPrefix(list, prefix []string) bool {
	if len(list) < len(prefix) {
		return false
	}
	for i := range prefix {
		if list[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Reset deletes every trace of the guild. Absent guilds are a no-op.
func (s *Store) Reset(guildID string) error {
	unlock := s.lockGuild(guildID)
	defer unlock()

	s.docMu.Lock()
	defer s.docMu.Unlock()

	prev, ok := s.doc.Guilds[guildID]
	if !ok {
		return nil
	}
	delete(s.doc.Guilds, guildID)
	if err := s.saveLocked(); err != nil {
		s.doc.Guilds[guildID] = prev
		return err
	}
	return nil
}

func (s *Store) ensureSecretLocked() error {
	if s.doc.HashSecret != "" {
		return nil
	}
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	s.doc.HashSecret = secret
	if err := s.saveLocked(); err != nil {
		s.doc.HashSecret = ""
		return err
	}
	return nil
}

// Secret returns the process-wide hashing key: the bytes of the hex string
// kept in the document, as existing trace tokens were keyed that way.
func (s *Store) Secret() ([]byte, error) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	if err := s.ensureSecretLocked(); err != nil {
		return nil, err
	}
	return []byte(s.doc.HashSecret), nil
}

// ListGuildIDs returns the ids of all stored guilds in sorted order.
func (s *Store) ListGuildIDs() []string {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	ids := make([]string, 0, len(s.doc.Guilds))
	for id := range s.doc.Guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IncrementStat adds amount to a counter.
func (s *Store) IncrementStat(guildID, name string, amount int64) (*GuildConfig, error) {
	if amount < 0 {
		return nil, ErrNegativeStat
	}
	return s.Update(guildID, func(cfg *GuildConfig) error {
		cfg.Stats[name] += amount
		return nil
	})
}

// GetHash looks up the trace token of a message.
func (s *Store) GetHash(guildID, messageID string) (string, bool, error) {
	cfg, err := s.Get(guildID)
	if err != nil {
		return "", false, err
	}
	token, ok := cfg.HashedPosts[messageID]
	return token, ok, nil
}

// SetLists replaces the blacklist and/or whitelist. A nil slice leaves the
// list untouched, an empty non-nil slice clears it.
func (s *Store) SetLists(guildID string, blacklist, whitelist []string) (*GuildConfig, error) {
	return s.Update(guildID, func(cfg *GuildConfig) error {
		if blacklist != nil {
			cfg.Blacklist = NormalizeWords(blacklist)
		}
		if whitelist != nil {
			cfg.Whitelist = NormalizeWords(whitelist)
		}
		return nil
	})
}

// UpdateAllowedChannels replaces the allowed target channel set.
func (s *Store) UpdateAllowedChannels(guildID string, channels []string) (*GuildConfig, error) {
	return s.Update(guildID, func(cfg *GuildConfig) error {
		cfg.AllowedTargetChannels = append([]string{}, channels...)
		return nil
	})
}

// SetBanner sets or, with an empty text, removes the banner.
func (s *Store) SetBanner(guildID, text string) (*GuildConfig, error) {
	return s.Update(guildID, func(cfg *GuildConfig) error {
		cfg.BannerText = text
		return nil
	})
}

// Publication is everything recorded for one delivered message.
type Publication struct {
	MessageID string
	Token     string
	// Counter is the stat incremented for the message, StatConfessions or
	// StatResponses.
	Counter string
	PII     bool
	Crisis  bool
}

// RecordPublication stores the counter, trace token and flags of a delivered
// message as one write. Nothing is recorded if the message already carries a
// different token.
func (s *Store) RecordPublication(guildID string, p Publication) (*GuildConfig, error) {
	return s.Update(guildID, func(cfg *GuildConfig) error {
		if existing, ok := cfg.HashedPosts[p.MessageID]; ok && existing != p.Token {
			return fmt.Errorf("%w: %s", ErrHashExists, p.MessageID)
		}
		cfg.HashedPosts[p.MessageID] = p.Token
		cfg.Stats[p.Counter]++
		if p.Crisis {
			cfg.CrisisFlags = append(cfg.CrisisFlags, p.MessageID)
			cfg.Stats[StatAIFlags]++
		}
		if p.PII {
			cfg.PIIFlags = append(cfg.PIIFlags, p.MessageID)
		}
		return nil
	})
}
