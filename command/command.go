package command

import (
	"time"
)

type Category string

const (
	CategoryConfig     Category = "Config"
	CategoryModeration Category = "Moderation"
	CategoryGeneral    Category = "General"
	CategoryUtility    Category = "Utility"
)

// Handler runs a command. Returning an error makes the dispatcher reply with a generic failure.
type Handler func(c *Context) error

// Descriptor describes one text command.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Category    Category

	// Permissions is what the invoker needs, BotPermissions is what the bot needs.
	Permissions    int64
	BotPermissions int64

	Cooldown  time.Duration
	OwnerOnly bool
	GuildOnly bool

	Run Handler
}
