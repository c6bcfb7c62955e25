package logger

import (
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/intrntsrfr/meido/pkg/mio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	_ mio.Logger    = (*ZapLogger)(nil)
	_ badger.Logger = (*ZapLogger)(nil)
)

func TestZapLogger_Named(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l, ok := Wrap(zap.New(core)).Named("dispatcher").(*ZapLogger)
	require.True(t, ok)

	l.Info("command ran", zap.String("name", "ban"))
	l.Errorf("failed to %v", "ban")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "dispatcher", entries[0].LoggerName)
	assert.Equal(t, "command ran", entries[0].Message)
	assert.Equal(t, "ban", entries[0].ContextMap()["name"])
	assert.Equal(t, "failed to ban", entries[1].Message)
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"console debug", "debug", "console"},
		{"json info", "info", "json"},
		{"unknown level falls back", "loud", "console"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New("test", tt.level, tt.format)
			assert.NotNil(t, l)
			assert.NotNil(t, l.Named("child"))
		})
	}
}
