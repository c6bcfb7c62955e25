package general

import (
	"fmt"

	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/utils"
)

func newDMCommand() *command.Descriptor {
	return &command.Descriptor{
		Name:        "dm",
		Aliases:     []string{"directmessage"},
		Description: "Sends a direct message to a user as Pookie.",
		Usage:       "`{prefix}dm <@user|userID> <message>`",
		Category:    command.CategoryUtility,
		OwnerOnly:   true,
		Run:         dm,
	}
}

func dm(c *command.Context) error {
	if len(c.Args) < 2 {
		return c.Usage()
	}
	u, err := resolveUser(c, c.Args[0])
	if u == nil || err != nil {
		return err
	}

	res := command.Notify(c.Ctx, c.Platform, u, utils.NewEmbed("Message from Pookie", c.Rest(1), utils.ColorBlue))
	if res.Suppressed() {
		c.ReplyError(fmt.Sprintf("Could not DM %v.", u.String()), "Reason: "+res.Reason)
		return nil
	}
	c.ReplySuccess(fmt.Sprintf("Message sent to %v.", u.String()))
	return nil
}
