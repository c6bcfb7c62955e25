package general

import (
	"fmt"
	"time"

	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/utils"
	"go.uber.org/zap"
)

func newPingCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "ping",
		Aliases:     []string{"latency"},
		Description: "Shows Pookie's gateway latency and database ping.",
		Usage:       "`{prefix}ping`",
		Category:    command.CategoryGeneral,
		Run:         ping,
	}
}

func ping(c *command.Context) error {
	db := "unavailable"
	start := time.Now()
	if err := c.DB.Ping(c.Ctx); err != nil {
		c.Log.Warn("database ping failed", zap.Error(err))
	} else {
		db = fmt.Sprintf("%vms", time.Since(start).Milliseconds())
	}

	bot := "N/A"
	if sent, err := utils.ParseSnowflake(c.Message.ID); err == nil {
		bot = fmt.Sprintf("%vms", time.Since(sent).Milliseconds())
	}

	_, _ = c.ReplyEmbed(utils.NewEmbed("Pong! 🏓", "", utils.ColorBlue,
		utils.Field("API Latency", fmt.Sprintf("%vms", c.Platform.Latency().Milliseconds()), true),
		utils.Field("Bot Latency", bot, true),
		utils.Field("Database Latency", db, true),
	))
	return nil
}
