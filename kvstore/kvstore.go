package kvstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/intrntsrfr/pookie/database"
	"go.uber.org/zap"
)

// Store is a database.DB backed by an embedded badger instance.
//
// Keys:
//
//	guild:<guild id>
//	alias:<guild id>
//	modlog:<guild id>:<target id>:<unix nano>:<log id>
//	blacklist:<user id>
type Store struct {
	db     *badger.DB
	logger mio.Logger
	stop   chan struct{}
}

// NewStore opens badger at path.
func NewStore(path string, logger mio.Logger) (*Store, error) {
	logger = logger.Named("kvstore")
	s := &Store{
		logger: logger,
		stop:   make(chan struct{}),
	}

	opts := badger.DefaultOptions(path)
	opts.Truncate = true
	opts.ValueLogLoadingMode = options.FileIO
	opts.NumVersionsToKeep = 1
	if bl, ok := logger.Named("badger").(badger.Logger); ok {
		opts.Logger = bl
	}

	db, err := badger.Open(opts)
	if err != nil {
		s.logger.Error("failed to open badger", zap.Error(err))
		return nil, err
	}
	s.db = db

	go s.RunGC()

	return s, nil
}

func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(txn *badger.Txn) error {
		return nil
	})
}

func (s *Store) Close() error {
	close(s.stop)
	return s.db.Close()
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(v)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	buffer := bytes.NewReader(data)
	return gob.NewDecoder(buffer).Decode(v)
}

func guildKey(gid string) []byte {
	return []byte(fmt.Sprintf("guild:%v", gid))
}

func aliasKey(gid string) []byte {
	return []byte(fmt.Sprintf("alias:%v", gid))
}

func blacklistKey(uid string) []byte {
	return []byte(fmt.Sprintf("blacklist:%v", uid))
}

func modLogKey(l *database.ModLog) []byte {
	return []byte(fmt.Sprintf("modlog:%v:%v:%020d:%v", l.GuildID, l.TargetID, l.Timestamp.UnixNano(), l.ID))
}

func (s *Store) get(key []byte, v interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		return getTxn(txn, key, v)
	})
	if err == badger.ErrKeyNotFound {
		return database.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read value", zap.ByteString("key", key), zap.Error(err))
	}
	return err
}

func getTxn(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return decodeGob(value, v)
}

// create writes v under key only if the key is absent.
func (s *Store) create(key []byte, v interface{}) error {
	enc, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return database.ErrExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, enc)
	})
	if err == badger.ErrConflict {
		return database.ErrExists
	}
	return err
}

// swap replaces the value under key if the stored version equals version.
// read decodes the stored value and returns its version.
func (s *Store) swap(key []byte, version int64, read func(txn *badger.Txn) (int64, error), v interface{}) error {
	enc, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		cur, err := read(txn)
		if err == badger.ErrKeyNotFound {
			return database.ErrNotFound
		}
		if err != nil {
			return err
		}
		if cur != version {
			return database.ErrConflict
		}
		return txn.Set(key, enc)
	})
	if err == badger.ErrConflict {
		return database.ErrConflict
	}
	return err
}

func (s *Store) GetGuildConfig(_ context.Context, guildID string) (*database.GuildConfig, error) {
	var gc database.GuildConfig
	if err := s.get(guildKey(guildID), &gc); err != nil {
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

func (s *Store) CreateGuildConfig(_ context.Context, gc *database.GuildConfig) error {
	return s.create(guildKey(gc.GuildID), gc)
}

func (s *Store) SaveGuildConfig(_ context.Context, gc *database.GuildConfig) error {
	next := gc.Clone()
	next.Version++
	read := func(txn *badger.Txn) (int64, error) {
		var cur database.GuildConfig
		err := getTxn(txn, guildKey(gc.GuildID), &cur)
		return cur.Version, err
	}
	if err := s.swap(guildKey(gc.GuildID), gc.Version, read, next); err != nil {
		return err
	}
	gc.Version = next.Version
	return nil
}

func (s *Store) GetAliasConfig(_ context.Context, guildID string) (*database.AliasConfig, error) {
	ac := database.NewAliasConfig(guildID)
	if err := s.get(aliasKey(guildID), ac); err != nil {
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

func (s *Store) CreateAliasConfig(_ context.Context, ac *database.AliasConfig) error {
	return s.create(aliasKey(ac.GuildID), ac)
}

func (s *Store) SaveAliasConfig(_ context.Context, ac *database.AliasConfig) error {
	next := ac.Clone()
	next.Version++
	read := func(txn *badger.Txn) (int64, error) {
		var cur database.AliasConfig
		err := getTxn(txn, aliasKey(ac.GuildID), &cur)
		return cur.Version, err
	}
	if err := s.swap(aliasKey(ac.GuildID), ac.Version, read, next); err != nil {
		return err
	}
	ac.Version = next.Version
	return nil
}

func (s *Store) AddModLog(_ context.Context, entry *database.ModLog) error {
	enc, err := encodeGob(entry)
	if err != nil {
		s.logger.Error("failed to encode mod log", zap.Error(err))
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modLogKey(entry), enc)
	})
}

func (s *Store) ListModLogs(_ context.Context, guildID, targetID string) ([]*database.ModLog, error) {
	prefix := []byte(fmt.Sprintf("modlog:%v:", guildID))
	if targetID != "" {
		prefix = []byte(fmt.Sprintf("modlog:%v:%v:", guildID, targetID))
	}

	var logs []*database.ModLog
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				s.logger.Error("failed to read value", zap.Error(err))
				continue
			}
			var l database.ModLog
			if err := decodeGob(value, &l); err != nil {
				s.logger.Error("failed to decode mod log", zap.Error(err))
				continue
			}
			logs = append(logs, &l)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to read mod logs", zap.Error(err))
		return nil, err
	}

	// keys are ordered per target, so a guild wide listing needs a sort
	sort.SliceStable(logs, func(a, b int) bool {
		return logs[a].Timestamp.Before(logs[b].Timestamp)
	})
	return logs, nil
}

func (s *Store) GetBlacklist(_ context.Context, userID string) (*database.UserBlacklist, error) {
	var bl database.UserBlacklist
	if err := s.get(blacklistKey(userID), &bl); err != nil {
		return nil, err
	}
	return &bl, nil
}

func (s *Store) AddBlacklist(_ context.Context, entry *database.UserBlacklist) error {
	enc, err := encodeGob(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blacklistKey(entry.UserID), enc)
	})
}

func (s *Store) RemoveBlacklist(_ context.Context, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(blacklistKey(userID)); err == badger.ErrKeyNotFound {
			return database.ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(blacklistKey(userID))
	})
}

func (s *Store) ListBlacklist(_ context.Context) ([]*database.UserBlacklist, error) {
	prefix := []byte("blacklist:")
	var list []*database.UserBlacklist
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var bl database.UserBlacklist
			if err := decodeGob(value, &bl); err != nil {
				return err
			}
			list = append(list, &bl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].Timestamp.Before(list[b].Timestamp)
	})
	return list, nil
}

func (s *Store) RunGC() {
	gcTicker := time.NewTicker(time.Hour)
	defer gcTicker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-gcTicker.C:
		}
		for {
			err := s.db.RunValueLogGC(0.7)
			if err != nil {
				if err != badger.ErrNoRewrite {
					s.logger.Error("failed to run gc", zap.Error(err))
				}
				break
			}
		}
	}
}
