package database

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrConflict = errors.New("concurrent modification")
)

// MaxUpdateAttempts bounds the compare-and-swap retries in UpdateGuildConfig and UpdateAliasConfig.
const MaxUpdateAttempts = 3

// DB is implemented by every storage backend.
//
// Create* must fail with ErrExists when the document is already present.
// Save* must only succeed when the stored Version equals the given Version, and bumps it by one.
type DB interface {
	Ping(ctx context.Context) error
	Close() error

	GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error)
	CreateGuildConfig(ctx context.Context, gc *GuildConfig) error
	SaveGuildConfig(ctx context.Context, gc *GuildConfig) error

	GetAliasConfig(ctx context.Context, guildID string) (*AliasConfig, error)
	CreateAliasConfig(ctx context.Context, ac *AliasConfig) error
	SaveAliasConfig(ctx context.Context, ac *AliasConfig) error

	AddModLog(ctx context.Context, entry *ModLog) error
	ListModLogs(ctx context.Context, guildID, targetID string) ([]*ModLog, error)

	GetBlacklist(ctx context.Context, userID string) (*UserBlacklist, error)
	AddBlacklist(ctx context.Context, entry *UserBlacklist) error
	RemoveBlacklist(ctx context.Context, userID string) error
	ListBlacklist(ctx context.Context) ([]*UserBlacklist, error)
}

// GetOrCreateGuildConfig returns the guild config, creating it with the given prefix if missing.
// created is true only for the caller whose insert won.
func GetOrCreateGuildConfig(ctx context.Context, db DB, guildID, prefix string) (gc *GuildConfig, created bool, err error) {
	gc, err = db.GetGuildConfig(ctx, guildID)
	if err == nil {
		return gc, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	gc = NewGuildConfig(guildID, prefix)
	err = db.CreateGuildConfig(ctx, gc)
	if err == nil {
		return gc, true, nil
	}
	if !errors.Is(err, ErrExists) {
		return nil, false, err
	}
	gc, err = db.GetGuildConfig(ctx, guildID)
	return gc, false, err
}

// UpdateGuildConfig applies fn to the latest config and saves it, retrying on version conflicts.
// A missing config is created with prefix first.
// An error returned from fn aborts the update and is returned as is.
func UpdateGuildConfig(ctx context.Context, db DB, guildID, prefix string, fn func(gc *GuildConfig) error) (*GuildConfig, error) {
	for i := 0; i < MaxUpdateAttempts; i++ {
		gc, _, err := GetOrCreateGuildConfig(ctx, db, guildID, prefix)
		if err != nil {
			return nil, err
		}
		if err := fn(gc); err != nil {
			return nil, err
		}
		err = db.SaveGuildConfig(ctx, gc)
		if err == nil {
			return gc, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("update guild config %v: %w", guildID, ErrConflict)
}

// GetAliasConfig returns the alias config, or an empty one if the guild has none yet.
func GetAliasConfig(ctx context.Context, db DB, guildID string) (*AliasConfig, error) {
	ac, err := db.GetAliasConfig(ctx, guildID)
	if errors.Is(err, ErrNotFound) {
		return NewAliasConfig(guildID), nil
	}
	return ac, err
}

func UpdateAliasConfig(ctx context.Context, db DB, guildID string, fn func(ac *AliasConfig) error) (*AliasConfig, error) {
	for i := 0; i < MaxUpdateAttempts; i++ {
		ac, err := db.GetAliasConfig(ctx, guildID)
		isNew := errors.Is(err, ErrNotFound)
		if isNew {
			ac = NewAliasConfig(guildID)
		} else if err != nil {
			return nil, err
		}

		if err := fn(ac); err != nil {
			return nil, err
		}

		if isNew {
			err = db.CreateAliasConfig(ctx, ac)
			if errors.Is(err, ErrExists) {
				continue
			}
		} else {
			err = db.SaveAliasConfig(ctx, ac)
			if errors.Is(err, ErrConflict) {
				continue
			}
		}
		if err != nil {
			return nil, err
		}
		return ac, nil
	}
	return nil, fmt.Errorf("update alias config %v: %w", guildID, ErrConflict)
}
