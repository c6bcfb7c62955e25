package database

import (
	"context"
	"errors"

	"github.com/intrntsrfr/meido/pkg/mio"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	collGuildConfigs = "guild_configs"
	collAliasConfigs = "alias_configs"
	collModLogs      = "mod_logs"
	collBlacklist    = "user_blacklist"
)

type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
	log    mio.Logger
}

func NewMongoDatabase(ctx context.Context, uri, name string, log mio.Logger) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error("unable to connect to mongo", zap.Error(err))
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Error("unable to ping mongo", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	m := &MongoDB{
		client: client,
		db:     client.Database(name),
		log:    log,
	}

	_, err = m.db.Collection(collModLogs).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "target_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		log.Warn("failed to create mod log index", zap.Error(err))
	}
	return m, nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *MongoDB) findOne(ctx context.Context, coll, id string, v interface{}) error {
	err := m.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *MongoDB) insert(ctx context.Context, coll string, v interface{}) error {
	_, err := m.db.Collection(coll).InsertOne(ctx, v)
	if mongo.IsDuplicateKeyError(err) {
		return ErrExists
	}
	return err
}

// replaceVersioned replaces the document only if its stored version still equals version.
func (m *MongoDB) replaceVersioned(ctx context.Context, coll, id string, version int64, v interface{}) error {
	res, err := m.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id, "version": version}, v)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (m *MongoDB) GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	var gc GuildConfig
	if err := m.findOne(ctx, collGuildConfigs, guildID, &gc); err != nil {
		return nil, err
	}
	if gc.ModRoles == nil {
		gc.ModRoles = []string{}
	}
	if gc.CmdBlacklistedChannels == nil {
		gc.CmdBlacklistedChannels = []string{}
	}
	return &gc, nil
}

func (m *MongoDB) CreateGuildConfig(ctx context.Context, gc *GuildConfig) error {
	return m.insert(ctx, collGuildConfigs, gc)
}

func (m *MongoDB) SaveGuildConfig(ctx context.Context, gc *GuildConfig) error {
	next := gc.Clone()
	next.Version++
	if err := m.replaceVersioned(ctx, collGuildConfigs, gc.GuildID, gc.Version, next); err != nil {
		return err
	}
	gc.Version = next.Version
	return nil
}

func (m *MongoDB) GetAliasConfig(ctx context.Context, guildID string) (*AliasConfig, error) {
	ac := NewAliasConfig(guildID)
	if err := m.findOne(ctx, collAliasConfigs, guildID, ac); err != nil {
		return nil, err
	}
	if ac.Aliases == nil {
		ac.Aliases = map[string]string{}
	}
	if ac.AutoRoleAliases == nil {
		ac.AutoRoleAliases = map[string]string{}
	}
	return ac, nil
}

func (m *MongoDB) CreateAliasConfig(ctx context.Context, ac *AliasConfig) error {
	return m.insert(ctx, collAliasConfigs, ac)
}

func (m *MongoDB) SaveAliasConfig(ctx context.Context, ac *AliasConfig) error {
	next := ac.Clone()
	next.Version++
	if err := m.replaceVersioned(ctx, collAliasConfigs, ac.GuildID, ac.Version, next); err != nil {
		return err
	}
	ac.Version = next.Version
	return nil
}

func (m *MongoDB) AddModLog(ctx context.Context, entry *ModLog) error {
	_, err := m.db.Collection(collModLogs).InsertOne(ctx, entry)
	return err
}

func (m *MongoDB) ListModLogs(ctx context.Context, guildID, targetID string) ([]*ModLog, error) {
	filter := bson.M{"guild_id": guildID}
	if targetID != "" {
		filter["target_id"] = targetID
	}
	cur, err := m.db.Collection(collModLogs).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var logs []*ModLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (m *MongoDB) GetBlacklist(ctx context.Context, userID string) (*UserBlacklist, error) {
	var bl UserBlacklist
	if err := m.findOne(ctx, collBlacklist, userID, &bl); err != nil {
		return nil, err
	}
	return &bl, nil
}

func (m *MongoDB) AddBlacklist(ctx context.Context, entry *UserBlacklist) error {
	_, err := m.db.Collection(collBlacklist).ReplaceOne(ctx, bson.M{"_id": entry.UserID}, entry, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoDB) RemoveBlacklist(ctx context.Context, userID string) error {
	res, err := m.db.Collection(collBlacklist).DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoDB) ListBlacklist(ctx context.Context) ([]*UserBlacklist, error) {
	cur, err := m.db.Collection(collBlacklist).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var list []*UserBlacklist
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
