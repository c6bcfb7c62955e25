package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/pookie/database"
	"go.uber.org/zap"
)

var (
	ErrAliasTaken   = errors.New("alias collides with an existing command or alias")
	ErrAliasInvalid = errors.New("alias must be a single word")

	ErrUnknownCommand = errors.New("unknown command")
)

// Resolver maps what a user typed to a canonical command name.
type Resolver struct {
	registry *Registry
	db       database.DB
	log      mio.Logger
}

func NewResolver(registry *Registry, db database.DB, log mio.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		db:       db,
		log:      log,
	}
}

// Resolve checks built-in aliases first and guild aliases second.
// Anything unknown is returned unchanged, so resolving a canonical name is a no-op.
func (r *Resolver) Resolve(ctx context.Context, typed, guildID string) string {
	typed = strings.ToLower(typed)
	if name, ok := r.registry.Canonical(typed); ok {
		return name
	}
	if guildID == "" {
		return typed
	}

	ac, err := r.db.GetAliasConfig(ctx, guildID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			r.log.Warn("failed to load guild aliases", zap.String("guildID", guildID), zap.Error(err))
		}
		return typed
	}
	if target, ok := ac.Aliases[typed]; ok {
		return target
	}
	return typed
}

// AutoRoleAlias returns the role mapped to a guild auto role alias.
func (r *Resolver) AutoRoleAlias(ctx context.Context, typed, guildID string) (string, bool) {
	if guildID == "" {
		return "", false
	}
	ac, err := r.db.GetAliasConfig(ctx, guildID)
	if err != nil {
		return "", false
	}
	roleID, ok := ac.AutoRoleAliases[strings.ToLower(typed)]
	return roleID, ok
}

// ValidateAlias rejects aliases that shadow a command name or built-in alias, ignoring case.
func ValidateAlias(registry *Registry, alias string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" || strings.ContainsAny(alias, " \t\n") {
		return ErrAliasInvalid
	}
	if registry.Taken(alias) {
		return fmt.Errorf("%q: %w", alias, ErrAliasTaken)
	}
	return nil
}

// AliasTarget returns the canonical command an alias may point to.
func AliasTarget(registry *Registry, name string) (string, error) {
	canonical, ok := registry.Canonical(strings.TrimSpace(name))
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	return canonical, nil
}
