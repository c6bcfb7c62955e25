package kvstore

import (
	"context"
	"testing"

	"github.com/intrntsrfr/pookie/database"
	"github.com/intrntsrfr/pookie/database/dbtest"
	"github.com/intrntsrfr/pookie/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, path string) *Store {
	s, err := NewStore(path, logger.Nop())
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.DB {
		s := newTestStore(t, t.TempDir())
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	ctx := context.Background()
	gc, created, err := database.GetOrCreateGuildConfig(ctx, s, "1", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "!", gc.Prefix)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := newTestStore(t, dir)
	_, err := database.UpdateGuildConfig(ctx, s, "1", "", func(gc *database.GuildConfig) error {
		gc.InVCRole = database.RoleSetting{RoleID: "7", Enabled: true}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = newTestStore(t, dir)
	defer s.Close()
	gc, err := s.GetGuildConfig(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "7", gc.InVCRole.RoleID)
	assert.Equal(t, int64(1), gc.Version)
}

func TestModLogKey_Ordering(t *testing.T) {
	a := database.NewModLog("1", database.ActionWarn, "2", "3", "")
	b := database.NewModLog("1", database.ActionWarn, "2", "3", "")
	b.Timestamp = a.Timestamp.Add(1)
	assert.Less(t, string(modLogKey(a)), string(modLogKey(b)))
}
