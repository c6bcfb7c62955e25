package pookie

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/pookie/audit"
	"github.com/intrntsrfr/pookie/command"
	"github.com/intrntsrfr/pookie/commands/general"
	"github.com/intrntsrfr/pookie/commands/moderation"
	"github.com/intrntsrfr/pookie/commands/settings"
	"github.com/intrntsrfr/pookie/config"
	"github.com/intrntsrfr/pookie/confirm"
	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/discord"
	"github.com/intrntsrfr/pookie/kvstore"
	"github.com/intrntsrfr/pookie/permissions"
	"go.uber.org/zap"
)

type Bot struct {
	cfg        *config.Config
	logger     mio.Logger
	db         database.DB
	discord    *discord.Discord
	services   *command.Services
	dispatcher *command.Dispatcher
	started    time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBot opens the configured storage and prepares the discord sessions. Nothing connects to the gateway until Run.
func NewBot(ctx context.Context, cfg *config.Config, logger mio.Logger) (*Bot, error) {
	db, err := OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open %v storage: %w", cfg.Database.Driver, err)
	}

	d, err := discord.NewDiscord(cfg.Token, cfg.Shards, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	b := newBot(cfg, logger, db, d)
	b.discord = d
	b.registerDiscordHandlers()
	return b, nil
}

func newBot(cfg *config.Config, logger mio.Logger, db database.DB, platform command.Platform) *Bot {
	logger = logger.Named("bot")
	started := time.Now()

	var cmds []*command.Descriptor
	cmds = append(cmds, settings.Commands()...)
	cmds = append(cmds, moderation.Commands()...)
	cmds = append(cmds, general.Commands(started)...)
	registry := command.MustRegistry(cmds...)

	services := &command.Services{
		Platform:      platform,
		DB:            db,
		Perms:         permissions.NewEvaluator(db, logger),
		Audit:         audit.NewLogger(db, platform, logger),
		Confirm:       confirm.NewTracker(),
		Registry:      registry,
		Resolver:      command.NewResolver(registry, db, logger),
		Log:           logger,
		OwnerID:       cfg.OwnerID,
		DefaultPrefix: cfg.DefaultPrefix,
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		services:   services,
		dispatcher: command.NewDispatcher(services, cfg.IsNoPrefixUser),
		started:    started,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OpenDatabase picks the storage backend named by the driver.
func OpenDatabase(ctx context.Context, cfg config.Database, logger mio.Logger) (database.DB, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return database.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	case config.DriverPostgres:
		return database.NewSQLDatabase(ctx, "postgres", cfg.URL, logger)
	case config.DriverSQLite:
		path := cfg.URL
		if path == "" {
			if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
				return nil, err
			}
			path = filepath.Join(cfg.DataPath, "pookie.db")
		}
		return database.NewSQLDatabase(ctx, "sqlite3", path, logger)
	case config.DriverJSON:
		if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
			return nil, err
		}
		return database.NewJsonDatabase(filepath.Join(cfg.DataPath, "data.json"))
	case config.DriverBadger, "":
		return kvstore.NewStore(cfg.DataPath, logger)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func (b *Bot) Run() error {
	b.logger.Info("starting", zap.Int("commands", b.services.Registry.Len()), zap.String("storage", b.cfg.Database.Driver))
	return b.discord.Open()
}

func (b *Bot) Close() {
	b.cancel()
	if b.discord != nil {
		b.discord.Close()
	}
	if err := b.db.Close(); err != nil {
		b.logger.Error("failed to close database", zap.Error(err))
	}
}

func (b *Bot) registerDiscordHandlers() {
	b.discord.AddHandler(readyHandler(b))
	b.discord.AddHandler(disconnectHandler(b))
	b.discord.AddHandler(guildCreateHandler(b))
	b.discord.AddHandler(guildMemberAddHandler(b))
	b.discord.AddHandler(voiceStateUpdateHandler(b))
	b.discord.AddHandler(messageCreateHandler(b))
	b.discord.AddHandler(messageReactionAddHandler(b))
}
