package commands

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemStats is what /beichtbot-status reports.
type SystemStats struct {
	Hostname string
	Platform string
	BootTime time.Time

	TotalMemory   uint64
	MemoryPercent float64
	ProcessRSS    uint64

	GoVersion  string
	GoRoutines int
	HeapAlloc  uint64

	BotStarted      time.Time
	Guilds          int
	StoredGuilds    int
	ActiveCooldowns int
	PendingDeletes  int
	Latency         time.Duration
}

func (h *Handler) gatherSystemStats(s *discordgo.Session) *SystemStats {
	stats := &SystemStats{
		GoVersion:       runtime.Version(),
		GoRoutines:      runtime.NumGoroutine(),
		BotStarted:      h.started,
		StoredGuilds:    len(h.deps.Store.ListGuildIDs()),
		ActiveCooldowns: h.deps.Cooldowns.Len(),
		Latency:         s.HeartbeatLatency(),
	}
	if s.State != nil {
		stats.Guilds = len(s.State.Guilds)
	}
	if h.session != nil {
		stats.PendingDeletes = h.session.PendingDeletes()
	}

	if hostInfo, err := host.Info(); err == nil {
		stats.Hostname = hostInfo.Hostname
		stats.Platform = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		stats.BootTime = time.Unix(int64(hostInfo.BootTime), 0)
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.TotalMemory = memInfo.Total
		stats.MemoryPercent = memInfo.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.HeapAlloc = m.HeapAlloc

	return stats
}

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return respondEmbed(s, i, statusEmbed(h.gatherSystemStats(s), time.Now()))
}

func statusEmbed(stats *SystemStats, now time.Time) *discordgo.MessageEmbed {
	hostname := stats.Hostname
	if hostname == "" {
		hostname = "unbekannt"
	}
	return &discordgo.MessageEmbed{
		Title: "BeichtBot Status",
		Color: 0x2B2D31,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🖥️ Host",
				Value:  fmt.Sprintf("%s (%s), läuft seit <t:%d:R>", hostname, stats.Platform, stats.BootTime.Unix()),
				Inline: false,
			},
			{
				Name:   "⏱️ Gestartet",
				Value:  fmt.Sprintf("<t:%d:R>", stats.BotStarted.Unix()),
				Inline: true,
			},
			{
				Name:   "⚡ Latenz",
				Value:  fmt.Sprintf("`%dms`", stats.Latency.Milliseconds()),
				Inline: true,
			},
			{
				Name:   "🧠 Speicher",
				Value:  fmt.Sprintf("RSS %s, Heap %s, System %.1f%% von %s", humanize.IBytes(stats.ProcessRSS), humanize.IBytes(stats.HeapAlloc), stats.MemoryPercent, humanize.IBytes(stats.TotalMemory)),
				Inline: false,
			},
			{
				Name:   "🏠 Server",
				Value:  fmt.Sprintf("%d verbunden, %d gespeichert", stats.Guilds, stats.StoredGuilds),
				Inline: true,
			},
			{
				Name:   "⏳ Cooldowns",
				Value:  humanize.Comma(int64(stats.ActiveCooldowns)),
				Inline: true,
			},
			{
				Name:   "🗑️ Geplante Löschungen",
				Value:  humanize.Comma(int64(stats.PendingDeletes)),
				Inline: true,
			},
			{
				Name:   "🐹 Runtime",
				Value:  fmt.Sprintf("%s, %d Goroutinen", stats.GoVersion, stats.GoRoutines),
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "BeichtBot",
		},
		Timestamp: now.Format(time.RFC3339),
	}
}
