package general

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/meido/pkg/utils/builders"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const mb = 1024 * 1024

// SystemStats is a snapshot of the host Pookie runs on.
type SystemStats struct {
	Platform   string
	HostUptime time.Duration
	CPUs       int
	CPUPercent float64
	MemTotal   uint64
	MemUsed    uint64

	GoVersion  string
	Goroutines int
	HeapAlloc  uint64
}

// ReadSystemStats collects what the host exposes. Values it cannot read stay zero.
func ReadSystemStats() SystemStats {
	s := SystemStats{
		CPUs:       runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}

	if info, err := host.Info(); err == nil {
		s.Platform = fmt.Sprintf("%v %v (%v)", info.Platform, info.PlatformVersion, info.KernelArch)
		s.HostUptime = time.Duration(info.Uptime) * time.Second
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotal = vm.Total
		s.MemUsed = vm.Used
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	return s
}

func newStatsCommand(started time.Time) *command.Descriptor {
	return &command.Descriptor{
		Name:        "stats",
		Aliases:     []string{"botinfo"},
		Description: "Displays Pookie's statistics and system information.",
		Usage:       "`{prefix}stats`",
		Category:    command.CategoryGeneral,
		Run: func(c *command.Context) error {
			return stats(c, started)
		},
	}
}

func stats(c *command.Context, started time.Time) error {
	s := ReadSystemStats()

	platform := s.Platform
	if platform == "" {
		platform = runtime.GOOS
	}

	embed := builders.NewEmbedBuilder().
		WithTitle("Pookie Statistics").
		WithDescription("Here's some information about me!").
		WithColor(int(utils.ColorBlue)).
		AddField("Servers", fmt.Sprint(c.Platform.GuildCount()), true).
		AddField("Commands", fmt.Sprint(c.Registry.Len()), true).
		AddField("Running since", fmt.Sprintf("<t:%v:R>", started.Unix()), true).
		AddField("Go version", s.GoVersion, true).
		AddField("discordgo version", "v"+discordgo.VERSION, true).
		AddField("Goroutines", fmt.Sprint(s.Goroutines), true).
		AddField("Platform", platform, true).
		AddField("Host uptime", utils.FormatDuration(s.HostUptime), true).
		AddField("CPU", fmt.Sprintf("%.1f%% of %v cores", s.CPUPercent, s.CPUs), true).
		AddField("Memory (Pookie)", fmt.Sprintf("%.2f MB", float64(s.HeapAlloc)/mb), true).
		AddField("Memory (system)", fmt.Sprintf("%v / %v MB", s.MemUsed/mb, s.MemTotal/mb), true).
		Build()
	_, _ = c.ReplyEmbed(embed)
	return nil
}
