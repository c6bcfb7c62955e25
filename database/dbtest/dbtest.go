// Package dbtest holds the behaviour every database.DB backend must share.
package dbtest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intrntsrfr/pookie/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run runs the backend suite. newDB must return an empty database.
func Run(t *testing.T, newDB func(t *testing.T) database.DB) {
	t.Run("guild config lifecycle", func(t *testing.T) { testGuildConfig(t, newDB(t)) })
	t.Run("guild config conflict", func(t *testing.T) { testGuildConfigConflict(t, newDB(t)) })
	t.Run("get or create is single", func(t *testing.T) { testGetOrCreate(t, newDB(t)) })
	t.Run("concurrent updates", func(t *testing.T) { testConcurrentUpdates(t, newDB(t)) })
	t.Run("alias config", func(t *testing.T) { testAliasConfig(t, newDB(t)) })
	t.Run("mod logs", func(t *testing.T) { testModLogs(t, newDB(t)) })
	t.Run("blacklist", func(t *testing.T) { testBlacklist(t, newDB(t)) })
}

func testGuildConfig(t *testing.T, db database.DB) {
	ctx := context.Background()

	_, err := db.GetGuildConfig(ctx, "1")
	require.ErrorIs(t, err, database.ErrNotFound)

	gc := database.NewGuildConfig("1", "")
	require.NoError(t, db.CreateGuildConfig(ctx, gc))
	require.ErrorIs(t, db.CreateGuildConfig(ctx, database.NewGuildConfig("1", "?")), database.ErrExists)

	got, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "!", got.Prefix)
	assert.Empty(t, got.ModRoles)
	assert.Equal(t, int64(0), got.Version)

	got.Prefix = "ab"
	got.ModRoles = append(got.ModRoles, "10", "11")
	got.AutoRole = database.RoleSetting{RoleID: "12", Enabled: true}
	got.CmdBlacklistedChannels = []string{"13"}
	got.AuditLogChannelID = "14"
	require.NoError(t, db.SaveGuildConfig(ctx, got))
	assert.Equal(t, int64(1), got.Version)

	again, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "ab", again.Prefix)
	assert.Equal(t, []string{"10", "11"}, again.ModRoles)
	assert.Equal(t, database.RoleSetting{RoleID: "12", Enabled: true}, again.AutoRole)
	assert.True(t, again.IsChannelBlacklisted("13"))
	assert.Equal(t, "14", again.AuditLogChannelID)
	assert.Equal(t, int64(1), again.Version)
}

func testGuildConfigConflict(t *testing.T, db database.DB) {
	ctx := context.Background()
	require.NoError(t, db.CreateGuildConfig(ctx, database.NewGuildConfig("1", "")))

	a, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	b, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)

	a.Prefix = "a"
	require.NoError(t, db.SaveGuildConfig(ctx, a))

	b.Prefix = "b"
	require.ErrorIs(t, db.SaveGuildConfig(ctx, b), database.ErrConflict)

	got, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Prefix)
}

func testGetOrCreate(t *testing.T, db database.DB) {
	ctx := context.Background()

	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gc, ok, err := database.GetOrCreateGuildConfig(ctx, db, "1", "")
			assert.NoError(t, err)
			if err == nil {
				assert.Equal(t, "!", gc.Prefix)
			}
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created)
}

func testConcurrentUpdates(t *testing.T, db database.DB) {
	ctx := context.Background()
	_, _, err := database.GetOrCreateGuildConfig(ctx, db, "1", "")
	require.NoError(t, err)

	roles := []string{"a", "b"}
	var wg sync.WaitGroup
	for _, r := range roles {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			// the retry budget is small, so keep retrying the whole update until it lands
			for i := 0; i < 10; i++ {
				_, err := database.UpdateGuildConfig(ctx, db, "1", "", func(gc *database.GuildConfig) error {
					gc.ModRoles = append(gc.ModRoles, role)
					return nil
				})
				if err == nil || !errors.Is(err, database.ErrConflict) {
					assert.NoError(t, err)
					return
				}
			}
			t.Errorf("update for %v never landed", role)
		}(r)
	}
	wg.Wait()

	gc, err := db.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	assert.ElementsMatch(t, roles, gc.ModRoles)
}

func testAliasConfig(t *testing.T, db database.DB) {
	ctx := context.Background()

	_, err := db.GetAliasConfig(ctx, "1")
	require.ErrorIs(t, err, database.ErrNotFound)

	empty, err := database.GetAliasConfig(ctx, db, "1")
	require.NoError(t, err)
	assert.Empty(t, empty.Aliases)

	ac, err := database.UpdateAliasConfig(ctx, db, "1", func(ac *database.AliasConfig) error {
		ac.Aliases["yeet"] = "ban"
		ac.AutoRoleAliases["member"] = "55"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ban", ac.Aliases["yeet"])

	_, err = database.UpdateAliasConfig(ctx, db, "1", func(ac *database.AliasConfig) error {
		delete(ac.Aliases, "yeet")
		return nil
	})
	require.NoError(t, err)

	got, err := db.GetAliasConfig(ctx, "1")
	require.NoError(t, err)
	assert.NotContains(t, got.Aliases, "yeet")
	assert.Equal(t, "55", got.AutoRoleAliases["member"])

	abort := errors.New("abort")
	_, err = database.UpdateAliasConfig(ctx, db, "1", func(ac *database.AliasConfig) error {
		ac.Aliases["nope"] = "kick"
		return abort
	})
	require.ErrorIs(t, err, abort)
	got, err = db.GetAliasConfig(ctx, "1")
	require.NoError(t, err)
	assert.NotContains(t, got.Aliases, "nope")
}

func testModLogs(t *testing.T, db database.DB) {
	ctx := context.Background()

	first := database.NewModLog("1", database.ActionWarn, "2", "3", "")
	first.Timestamp = time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	second := database.NewModLog("1", database.ActionMute, "2", "3", "spam")
	second.Timestamp = second.Timestamp.Truncate(time.Millisecond)
	d := 10 * time.Minute
	second.Duration = &d
	other := database.NewModLog("1", database.ActionKick, "4", "3", "")
	otherGuild := database.NewModLog("9", database.ActionBan, "2", "3", "")

	for _, l := range []*database.ModLog{second, first, other, otherGuild} {
		require.NoError(t, db.AddModLog(ctx, l))
	}

	logs, err := db.ListModLogs(ctx, "1", "2")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, first.ID, logs[0].ID)
	assert.Equal(t, database.DefaultReason, logs[0].Reason)
	assert.Nil(t, logs[0].Duration)
	assert.Equal(t, second.ID, logs[1].ID)
	assert.Equal(t, database.ActionMute, logs[1].Action)
	require.NotNil(t, logs[1].Duration)
	assert.Equal(t, d, *logs[1].Duration)

	all, err := db.ListModLogs(ctx, "1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testBlacklist(t *testing.T, db database.DB) {
	ctx := context.Background()

	_, err := db.GetBlacklist(ctx, "1")
	require.ErrorIs(t, err, database.ErrNotFound)
	require.ErrorIs(t, db.RemoveBlacklist(ctx, "1"), database.ErrNotFound)

	entry := &database.UserBlacklist{UserID: "1", Reason: "spam", BlacklistedBy: "0", Timestamp: time.Now().UTC()}
	require.NoError(t, db.AddBlacklist(ctx, entry))

	got, err := db.GetBlacklist(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "spam", got.Reason)

	entry.Reason = "raid"
	require.NoError(t, db.AddBlacklist(ctx, entry))
	list, err := db.ListBlacklist(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "raid", list[0].Reason)

	require.NoError(t, db.RemoveBlacklist(ctx, "1"))
	_, err = db.GetBlacklist(ctx, "1")
	require.ErrorIs(t, err, database.ErrNotFound)
}
