package settings

import (
	"fmt"
	"unicode/utf8"

	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/utils"
)

func newSetPrefixCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "setprefix",
		Aliases:     []string{"prefix", "changeprefix"},
		Description: "Sets the custom prefix for this server.",
		Usage:       "`{prefix}setprefix <new_prefix>`",
		Category:    command.CategoryConfig,
		Permissions: manageConfig,
		GuildOnly:   true,
		Run:         setPrefix,
	}
}

func setPrefix(c *command.Context) error {
	if len(c.Args) < 1 {
		return c.UsageWith(utils.Field("Current Prefix", fmt.Sprintf("`%v`", c.Prefix), false))
	}

	prefix := c.Args[0]
	if utf8.RuneCountInString(prefix) > database.MaxPrefixLen {
		c.ReplyError("Prefix too long.", fmt.Sprintf("Please keep the prefix to %v characters or less.", database.MaxPrefixLen))
		return nil
	}

	old := c.Prefix
	err := update(c, func(gc *database.GuildConfig) error {
		gc.Prefix = prefix
		return nil
	})
	if err != nil {
		return err
	}

	c.ReplySuccess(fmt.Sprintf("Server prefix has been set to `%v`.", prefix))
	c.AuditLog(audit.Entry{
		Title:       "Prefix Changed",
		Description: fmt.Sprintf("The prefix was changed from `%v` to `%v`.", old, prefix),
	})
	return nil
}
