// Package general holds help, diagnostics and bot owner commands.
package general

import (
	"time"

	"github.com/intrntsrfr/pookie/command"
)

// Commands returns the general commands. started is when the bot came up, shown by stats.
func Commands(started time.Time) []*command.Descriptor {
	return []*command.Descriptor{
		newHelpCommand(),
		newPingCommand(),
		newStatsCommand(started),
		newBlacklistCommand(),
		newDMCommand(),
		newNowPlayingCommand(),
	}
}
