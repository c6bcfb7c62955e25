package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS guild_configs (
		guild_id TEXT PRIMARY KEY,
		prefix TEXT NOT NULL,
		audit_log_channel_id TEXT NOT NULL DEFAULT '',
		mod_roles TEXT NOT NULL DEFAULT '[]',
		auto_role_id TEXT NOT NULL DEFAULT '',
		auto_role_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		in_vc_role_id TEXT NOT NULL DEFAULT '',
		in_vc_role_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		cmd_blacklisted_channels TEXT NOT NULL DEFAULT '[]',
		version BIGINT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS alias_configs (
		guild_id TEXT PRIMARY KEY,
		aliases TEXT NOT NULL DEFAULT '{}',
		auto_role_aliases TEXT NOT NULL DEFAULT '{}',
		version BIGINT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS mod_logs (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_id TEXT NOT NULL,
		moderator_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		duration_ms BIGINT,
		created_at TIMESTAMP NOT NULL,
		channel_id TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS mod_logs_guild_target ON mod_logs (guild_id, target_id);`,
	`CREATE TABLE IF NOT EXISTS user_blacklist (
		user_id TEXT PRIMARY KEY,
		reason TEXT NOT NULL,
		blacklisted_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`,
}

// SqlDB stores everything in postgres or sqlite. Lists and maps are kept as JSON text columns.
type SqlDB struct {
	pool *sqlx.DB
	log  mio.Logger
}

// NewSQLDatabase connects with the given sqlx driver name ("postgres" or "sqlite3") and creates the tables.
func NewSQLDatabase(ctx context.Context, driver, connStr string, log mio.Logger) (*SqlDB, error) {
	pool, err := sqlx.ConnectContext(ctx, driver, connStr)
	if err != nil {
		log.Error("unable to connect to db", zap.Error(err))
		return nil, err
	}
	if driver == "sqlite3" {
		// sqlite only allows one writer
		pool.SetMaxOpenConns(1)
	}

	db := &SqlDB{
		pool: pool,
		log:  log,
	}
	for _, stmt := range schema {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return db, nil
}

func (p *SqlDB) GetConn() *sqlx.DB {
	return p.pool
}

func (p *SqlDB) Ping(ctx context.Context) error {
	return p.pool.PingContext(ctx)
}

func (p *SqlDB) Close() error {
	return p.pool.Close()
}

type guildConfigRow struct {
	GuildID                string `db:"guild_id"`
	Prefix                 string `db:"prefix"`
	AuditLogChannelID      string `db:"audit_log_channel_id"`
	ModRoles               string `db:"mod_roles"`
	AutoRoleID             string `db:"auto_role_id"`
	AutoRoleEnabled        bool   `db:"auto_role_enabled"`
	InVCRoleID             string `db:"in_vc_role_id"`
	InVCRoleEnabled        bool   `db:"in_vc_role_enabled"`
	CmdBlacklistedChannels string `db:"cmd_blacklisted_channels"`
	Version                int64  `db:"version"`
}

func toGuildConfigRow(gc *GuildConfig) (*guildConfigRow, error) {
	modRoles, err := marshalText(gc.ModRoles, "[]")
	if err != nil {
		return nil, err
	}
	channels, err := marshalText(gc.CmdBlacklistedChannels, "[]")
	if err != nil {
		return nil, err
	}
	return &guildConfigRow{
		GuildID:                gc.GuildID,
		Prefix:                 gc.Prefix,
		AuditLogChannelID:      gc.AuditLogChannelID,
		ModRoles:               modRoles,
		AutoRoleID:             gc.AutoRole.RoleID,
		AutoRoleEnabled:        gc.AutoRole.Enabled,
		InVCRoleID:             gc.InVCRole.RoleID,
		InVCRoleEnabled:        gc.InVCRole.Enabled,
		CmdBlacklistedChannels: channels,
		Version:                gc.Version,
	}, nil
}

func (r *guildConfigRow) toGuildConfig() (*GuildConfig, error) {
	gc := &GuildConfig{
		GuildID:           r.GuildID,
		Prefix:            r.Prefix,
		AuditLogChannelID: r.AuditLogChannelID,
		AutoRole:          RoleSetting{RoleID: r.AutoRoleID, Enabled: r.AutoRoleEnabled},
		InVCRole:          RoleSetting{RoleID: r.InVCRoleID, Enabled: r.InVCRoleEnabled},
		Version:           r.Version,
	}
	if err := json.Unmarshal([]byte(r.ModRoles), &gc.ModRoles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.CmdBlacklistedChannels), &gc.CmdBlacklistedChannels); err != nil {
		return nil, err
	}
	if gc.ModRoles == nil {
		gc.ModRoles = []string{}
	}
	if gc.CmdBlacklistedChannels == nil {
		gc.CmdBlacklistedChannels = []string{}
	}
	return gc, nil
}

func (p *SqlDB) GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	var row guildConfigRow
	err := p.pool.GetContext(ctx, &row, p.pool.Rebind("SELECT * FROM guild_configs WHERE guild_id=?;"), guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toGuildConfig()
}

func (p *SqlDB) CreateGuildConfig(ctx context.Context, gc *GuildConfig) error {
	row, err := toGuildConfigRow(gc)
	if err != nil {
		return err
	}
	res, err := p.pool.NamedExecContext(ctx, `INSERT INTO guild_configs
		(guild_id, prefix, audit_log_channel_id, mod_roles, auto_role_id, auto_role_enabled, in_vc_role_id, in_vc_role_enabled, cmd_blacklisted_channels, version)
		VALUES (:guild_id, :prefix, :audit_log_channel_id, :mod_roles, :auto_role_id, :auto_role_enabled, :in_vc_role_id, :in_vc_role_enabled, :cmd_blacklisted_channels, :version)
		ON CONFLICT (guild_id) DO NOTHING;`, row)
	return insertResult(res, err)
}

func (p *SqlDB) SaveGuildConfig(ctx context.Context, gc *GuildConfig) error {
	row, err := toGuildConfigRow(gc)
	if err != nil {
		return err
	}
	res, err := p.pool.NamedExecContext(ctx, `UPDATE guild_configs SET
		prefix = :prefix, audit_log_channel_id = :audit_log_channel_id, mod_roles = :mod_roles,
		auto_role_id = :auto_role_id, auto_role_enabled = :auto_role_enabled,
		in_vc_role_id = :in_vc_role_id, in_vc_role_enabled = :in_vc_role_enabled,
		cmd_blacklisted_channels = :cmd_blacklisted_channels, version = version + 1
		WHERE guild_id = :guild_id AND version = :version;`, row)
	if err := updateResult(res, err); err != nil {
		return err
	}
	gc.Version++
	return nil
}

type aliasConfigRow struct {
	GuildID         string `db:"guild_id"`
	Aliases         string `db:"aliases"`
	AutoRoleAliases string `db:"auto_role_aliases"`
	Version         int64  `db:"version"`
}

func toAliasConfigRow(ac *AliasConfig) (*aliasConfigRow, error) {
	aliases, err := marshalText(ac.Aliases, "{}")
	if err != nil {
		return nil, err
	}
	roleAliases, err := marshalText(ac.AutoRoleAliases, "{}")
	if err != nil {
		return nil, err
	}
	return &aliasConfigRow{
		GuildID:         ac.GuildID,
		Aliases:         aliases,
		AutoRoleAliases: roleAliases,
		Version:         ac.Version,
	}, nil
}

func (r *aliasConfigRow) toAliasConfig() (*AliasConfig, error) {
	ac := NewAliasConfig(r.GuildID)
	ac.Version = r.Version
	if err := json.Unmarshal([]byte(r.Aliases), &ac.Aliases); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.AutoRoleAliases), &ac.AutoRoleAliases); err != nil {
		return nil, err
	}
	return ac, nil
}

func (p *SqlDB) GetAliasConfig(ctx context.Context, guildID string) (*AliasConfig, error) {
	var row aliasConfigRow
	err := p.pool.GetContext(ctx, &row, p.pool.Rebind("SELECT * FROM alias_configs WHERE guild_id=?;"), guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toAliasConfig()
}

func (p *SqlDB) CreateAliasConfig(ctx context.Context, ac *AliasConfig) error {
	row, err := toAliasConfigRow(ac)
	if err != nil {
		return err
	}
	res, err := p.pool.NamedExecContext(ctx, `INSERT INTO alias_configs (guild_id, aliases, auto_role_aliases, version)
		VALUES (:guild_id, :aliases, :auto_role_aliases, :version)
		ON CONFLICT (guild_id) DO NOTHING;`, row)
	return insertResult(res, err)
}

func (p *SqlDB) SaveAliasConfig(ctx context.Context, ac *AliasConfig) error {
	row, err := toAliasConfigRow(ac)
	if err != nil {
		return err
	}
	res, err := p.pool.NamedExecContext(ctx, `UPDATE alias_configs SET
		aliases = :aliases, auto_role_aliases = :auto_role_aliases, version = version + 1
		WHERE guild_id = :guild_id AND version = :version;`, row)
	if err := updateResult(res, err); err != nil {
		return err
	}
	ac.Version++
	return nil
}

type modLogRow struct {
	ID          string        `db:"id"`
	GuildID     string        `db:"guild_id"`
	Action      string        `db:"action"`
	TargetID    string        `db:"target_id"`
	ModeratorID string        `db:"moderator_id"`
	Reason      string        `db:"reason"`
	DurationMs  sql.NullInt64 `db:"duration_ms"`
	CreatedAt   time.Time     `db:"created_at"`
	ChannelID   string        `db:"channel_id"`
}

func (p *SqlDB) AddModLog(ctx context.Context, entry *ModLog) error {
	row := modLogRow{
		ID:          entry.ID,
		GuildID:     entry.GuildID,
		Action:      string(entry.Action),
		TargetID:    entry.TargetID,
		ModeratorID: entry.ModeratorID,
		Reason:      entry.Reason,
		CreatedAt:   entry.Timestamp.UTC(),
		ChannelID:   entry.ChannelID,
	}
	if entry.Duration != nil {
		row.DurationMs = sql.NullInt64{Int64: entry.Duration.Milliseconds(), Valid: true}
	}
	_, err := p.pool.NamedExecContext(ctx, `INSERT INTO mod_logs
		(id, guild_id, action, target_id, moderator_id, reason, duration_ms, created_at, channel_id)
		VALUES (:id, :guild_id, :action, :target_id, :moderator_id, :reason, :duration_ms, :created_at, :channel_id);`, row)
	return err
}

func (p *SqlDB) ListModLogs(ctx context.Context, guildID, targetID string) ([]*ModLog, error) {
	var rows []modLogRow
	var err error
	if targetID == "" {
		err = p.pool.SelectContext(ctx, &rows, p.pool.Rebind("SELECT * FROM mod_logs WHERE guild_id=? ORDER BY created_at;"), guildID)
	} else {
		err = p.pool.SelectContext(ctx, &rows, p.pool.Rebind("SELECT * FROM mod_logs WHERE guild_id=? AND target_id=? ORDER BY created_at;"), guildID, targetID)
	}
	if err != nil {
		return nil, err
	}

	logs := make([]*ModLog, 0, len(rows))
	for _, r := range rows {
		l := &ModLog{
			ID:          r.ID,
			GuildID:     r.GuildID,
			Action:      Action(r.Action),
			TargetID:    r.TargetID,
			ModeratorID: r.ModeratorID,
			Reason:      r.Reason,
			Timestamp:   r.CreatedAt,
			ChannelID:   r.ChannelID,
		}
		if r.DurationMs.Valid {
			d := time.Duration(r.DurationMs.Int64) * time.Millisecond
			l.Duration = &d
		}
		logs = append(logs, l)
	}
	return logs, nil
}

type blacklistRow struct {
	UserID        string    `db:"user_id"`
	Reason        string    `db:"reason"`
	BlacklistedBy string    `db:"blacklisted_by"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r blacklistRow) toBlacklist() *UserBlacklist {
	return &UserBlacklist{
		UserID:        r.UserID,
		Reason:        r.Reason,
		BlacklistedBy: r.BlacklistedBy,
		Timestamp:     r.CreatedAt,
	}
}

func (p *SqlDB) GetBlacklist(ctx context.Context, userID string) (*UserBlacklist, error) {
	var row blacklistRow
	err := p.pool.GetContext(ctx, &row, p.pool.Rebind("SELECT * FROM user_blacklist WHERE user_id=?;"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toBlacklist(), nil
}

func (p *SqlDB) AddBlacklist(ctx context.Context, entry *UserBlacklist) error {
	row := blacklistRow{
		UserID:        entry.UserID,
		Reason:        entry.Reason,
		BlacklistedBy: entry.BlacklistedBy,
		CreatedAt:     entry.Timestamp.UTC(),
	}
	_, err := p.pool.NamedExecContext(ctx, `INSERT INTO user_blacklist (user_id, reason, blacklisted_by, created_at)
		VALUES (:user_id, :reason, :blacklisted_by, :created_at)
		ON CONFLICT (user_id) DO UPDATE SET reason = excluded.reason, blacklisted_by = excluded.blacklisted_by, created_at = excluded.created_at;`, row)
	return err
}

func (p *SqlDB) RemoveBlacklist(ctx context.Context, userID string) error {
	res, err := p.pool.ExecContext(ctx, p.pool.Rebind("DELETE FROM user_blacklist WHERE user_id=?;"), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *SqlDB) ListBlacklist(ctx context.Context) ([]*UserBlacklist, error) {
	var rows []blacklistRow
	if err := p.pool.SelectContext(ctx, &rows, "SELECT * FROM user_blacklist ORDER BY created_at;"); err != nil {
		return nil, err
	}
	list := make([]*UserBlacklist, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.toBlacklist())
	}
	return list, nil
}

func marshalText(v interface{}, empty string) (string, error) {
	d, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(d) == "null" {
		return empty, nil
	}
	return string(d), nil
}

func insertResult(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func updateResult(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
