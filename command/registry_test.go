package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*command.Context) error { return nil }

func cmd(name string, aliases ...string) *command.Descriptor {
	return &command.Descriptor{Name: name, Aliases: aliases, Run: noop}
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		cmds    []*command.Descriptor
		wantErr bool
	}{
		{"distinct", []*command.Descriptor{cmd("ban"), cmd("mute", "timeout")}, false},
		{"duplicate name", []*command.Descriptor{cmd("ban"), cmd("Ban")}, true},
		{"alias shadows name", []*command.Descriptor{cmd("ban"), cmd("kick", "ban")}, true},
		{"duplicate alias", []*command.Descriptor{cmd("mute", "to"), cmd("timeout", "to")}, true},
		{"missing handler", []*command.Descriptor{{Name: "ban"}}, true},
		{"empty name", []*command.Descriptor{{Name: "", Run: noop}}, true},
		{"name with space", []*command.Descriptor{{Name: "set prefix", Run: noop}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := command.NewRegistry(tt.cmds...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := command.MustRegistry(cmd("mute", "timeout"), cmd("ban"))

	c, ok := r.Lookup("TIMEOUT")
	require.True(t, ok)
	assert.Equal(t, "mute", c.Name)

	name, ok := r.Canonical("mute")
	assert.True(t, ok)
	assert.Equal(t, "mute", name)

	_, ok = r.Lookup("kick")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CommandsSorted(t *testing.T) {
	r := command.MustRegistry(
		&command.Descriptor{Name: "ping", Category: command.CategoryGeneral, Run: noop},
		&command.Descriptor{Name: "ban", Category: command.CategoryModeration, Run: noop},
		&command.Descriptor{Name: "setprefix", Category: command.CategoryConfig, Run: noop},
		&command.Descriptor{Name: "help", Category: command.CategoryGeneral, Run: noop},
	)
	var names []string
	for _, c := range r.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"setprefix", "help", "ping", "ban"}, names)
}

func TestMustRegistry_Panics(t *testing.T) {
	assert.Panics(t, func() { command.MustRegistry(cmd("a"), cmd("a")) })
}

func TestValidateAlias(t *testing.T) {
	r := command.MustRegistry(cmd("mute", "timeout"), cmd("ban"))

	tests := []struct {
		alias string
		want  error
	}{
		{"b", nil},
		{"Yeet", nil},
		{"BAN", command.ErrAliasTaken},
		{"Timeout", command.ErrAliasTaken},
		{"", command.ErrAliasInvalid},
		{"two words", command.ErrAliasInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			err := command.ValidateAlias(r, tt.alias)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)
	r := command.MustRegistry(cmd("mute", "timeout"), cmd("ban"))
	res := command.NewResolver(r, db, logger.Nop())

	_, err = database.UpdateAliasConfig(ctx, db, "1", func(ac *database.AliasConfig) error {
		ac.Aliases["b"] = "ban"
		ac.Aliases["shh"] = "mute"
		return nil
	})
	require.NoError(t, err)

	tests := []struct {
		typed, guild, want string
	}{
		{"ban", "1", "ban"},
		{"timeout", "1", "mute"},
		{"B", "1", "ban"},
		{"shh", "1", "mute"},
		{"b", "2", "b"},
		{"b", "", "b"},
		{"unknown", "1", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.typed+"@"+tt.guild, func(t *testing.T) {
			got := res.Resolve(ctx, tt.typed, tt.guild)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, res.Resolve(ctx, got, tt.guild))
		})
	}
}

func TestResolver_AutoRoleAlias(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)
	res := command.NewResolver(command.MustRegistry(cmd("ban")), db, logger.Nop())

	_, ok := res.AutoRoleAlias(ctx, "vip", "1")
	assert.False(t, ok)

	_, err = database.UpdateAliasConfig(ctx, db, "1", func(ac *database.AliasConfig) error {
		ac.AutoRoleAliases["vip"] = "77"
		return nil
	})
	require.NoError(t, err)

	role, ok := res.AutoRoleAlias(ctx, "VIP", "1")
	assert.True(t, ok)
	assert.Equal(t, "77", role)

	_, ok = res.AutoRoleAlias(ctx, "vip", "")
	assert.False(t, ok)
}
