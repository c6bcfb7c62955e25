package database

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
)

//
// JSON implementation DB
//

// JsonDB keeps everything in memory and writes the whole state to a file after each change.
// An empty path keeps it purely in memory.
type JsonDB struct {
	path  string
	state *state
}

type state struct {
	sync.Mutex
	Guilds    map[string]*GuildConfig   `json:"guilds"`
	Aliases   map[string]*AliasConfig   `json:"aliases"`
	ModLogs   []*ModLog                 `json:"mod_logs"`
	Blacklist map[string]*UserBlacklist `json:"blacklist"`
}

func newState() *state {
	return &state{
		Guilds:    make(map[string]*GuildConfig),
		Aliases:   make(map[string]*AliasConfig),
		ModLogs:   []*ModLog{},
		Blacklist: make(map[string]*UserBlacklist),
	}
}

func NewJsonDatabase(path string) (*JsonDB, error) {
	db := &JsonDB{
		path:  path,
		state: newState(),
	}
	err := db.load(path)
	return db, err
}

func (j *JsonDB) Ping(_ context.Context) error {
	return nil
}

func (j *JsonDB) Close() error {
	j.state.Lock()
	defer j.state.Unlock()
	return j.save()
}

func (j *JsonDB) load(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		// file does not exist, so use default
		return nil
	}

	d, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	st := newState()
	if err := json.Unmarshal(d, st); err != nil {
		return err
	}

	j.state = st
	return nil
}

// save must be called with the state lock held.
func (j *JsonDB) save() error {
	if j.path == "" {
		return nil
	}

	d, err := json.Marshal(j.state)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(j.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(d)
	return err
}

func (j *JsonDB) GetGuildConfig(_ context.Context, guildID string) (*GuildConfig, error) {
	j.state.Lock()
	defer j.state.Unlock()
	if v, ok := j.state.Guilds[guildID]; ok {
		return v.Clone(), nil
	}
	return nil, ErrNotFound
}

func (j *JsonDB) CreateGuildConfig(_ context.Context, gc *GuildConfig) error {
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Guilds[gc.GuildID]; ok {
		return ErrExists
	}
	j.state.Guilds[gc.GuildID] = gc.Clone()
	return j.save()
}

func (j *JsonDB) SaveGuildConfig(_ context.Context, gc *GuildConfig) error {
	j.state.Lock()
	defer j.state.Unlock()
	cur, ok := j.state.Guilds[gc.GuildID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != gc.Version {
		return ErrConflict
	}
	gc.Version++
	j.state.Guilds[gc.GuildID] = gc.Clone()
	return j.save()
}

func (j *JsonDB) GetAliasConfig(_ context.Context, guildID string) (*AliasConfig, error) {
	j.state.Lock()
	defer j.state.Unlock()
	if v, ok := j.state.Aliases[guildID]; ok {
		return v.Clone(), nil
	}
	return nil, ErrNotFound
}

func (j *JsonDB) CreateAliasConfig(_ context.Context, ac *AliasConfig) error {
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Aliases[ac.GuildID]; ok {
		return ErrExists
	}
	j.state.Aliases[ac.GuildID] = ac.Clone()
	return j.save()
}

func (j *JsonDB) SaveAliasConfig(_ context.Context, ac *AliasConfig) error {
	j.state.Lock()
	defer j.state.Unlock()
	cur, ok := j.state.Aliases[ac.GuildID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != ac.Version {
		return ErrConflict
	}
	ac.Version++
	j.state.Aliases[ac.GuildID] = ac.Clone()
	return j.save()
}

func (j *JsonDB) AddModLog(_ context.Context, entry *ModLog) error {
	j.state.Lock()
	defer j.state.Unlock()
	e := *entry
	j.state.ModLogs = append(j.state.ModLogs, &e)
	return j.save()
}

func (j *JsonDB) ListModLogs(_ context.Context, guildID, targetID string) ([]*ModLog, error) {
	j.state.Lock()
	defer j.state.Unlock()
	var logs []*ModLog
	for _, l := range j.state.ModLogs {
		if l.GuildID != guildID {
			continue
		}
		if targetID != "" && l.TargetID != targetID {
			continue
		}
		e := *l
		logs = append(logs, &e)
	}
	sort.SliceStable(logs, func(a, b int) bool {
		return logs[a].Timestamp.Before(logs[b].Timestamp)
	})
	return logs, nil
}

func (j *JsonDB) GetBlacklist(_ context.Context, userID string) (*UserBlacklist, error) {
	j.state.Lock()
	defer j.state.Unlock()
	if v, ok := j.state.Blacklist[userID]; ok {
		e := *v
		return &e, nil
	}
	return nil, ErrNotFound
}

func (j *JsonDB) AddBlacklist(_ context.Context, entry *UserBlacklist) error {
	j.state.Lock()
	defer j.state.Unlock()
	e := *entry
	j.state.Blacklist[entry.UserID] = &e
	return j.save()
}

func (j *JsonDB) RemoveBlacklist(_ context.Context, userID string) error {
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Blacklist[userID]; !ok {
		return ErrNotFound
	}
	delete(j.state.Blacklist, userID)
	return j.save()
}

func (j *JsonDB) ListBlacklist(_ context.Context) ([]*UserBlacklist, error) {
	j.state.Lock()
	defer j.state.Unlock()
	list := make([]*UserBlacklist, 0, len(j.state.Blacklist))
	for _, v := range j.state.Blacklist {
		e := *v
		list = append(list, &e)
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].Timestamp.Before(list[b].Timestamp)
	})
	return list, nil
}
