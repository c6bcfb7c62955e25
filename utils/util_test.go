package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSnowflake(t *testing.T) {
	type args struct {
		id string
	}
	tests := []struct {
		name    string
		args    args
		want    time.Time
		wantErr bool
	}{
		{
			name:    "valid test",
			args:    args{"163454407999094786"},
			want:    time.Unix(1459040967, 0),
			wantErr: false,
		},
		{
			name:    "invalid test",
			args:    args{"asdf"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSnowflake(tt.args.id)
			if tt.wantErr {
				assert.Error(t, err)
				assert.WithinDuration(t, time.Now(), got, 5*time.Second)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrimChannelString(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{
			name: "valid test",
			args: "<#1234>",
			want: "1234",
		},
		{
			name: "valid test 2",
			args: "1234",
			want: "1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimChannelString(tt.args); got != tt.want {
				t.Errorf("TrimChannelString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimMentions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		args string
		want string
	}{
		{"user", TrimUserMention, "<@1234>", "1234"},
		{"user nickname", TrimUserMention, "<@!1234>", "1234"},
		{"user plain", TrimUserMention, "1234", "1234"},
		{"role", TrimRoleMention, "<@&1234>", "1234"},
		{"role plain", TrimRoleMention, "1234", "1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.args))
		})
	}
}

func TestIsSnowflake(t *testing.T) {
	assert.True(t, IsSnowflake("163454407999094786"))
	assert.True(t, IsSnowflake("1234"))
	assert.False(t, IsSnowflake(""))
	assert.False(t, IsSnowflake("-1234"))
	assert.False(t, IsSnowflake("123456789012345678901"))
	assert.False(t, IsSnowflake("16345440799909478a"))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    time.Duration
		wantErr bool
	}{
		{"minutes", "10m", 10 * time.Minute, false},
		{"hours", "2h", 2 * time.Hour, false},
		{"fraction", "1.5h", 90 * time.Minute, false},
		{"days", "28d", 28 * 24 * time.Hour, false},
		{"weeks", "1w", 7 * 24 * time.Hour, false},
		{"long form", "2 days", 48 * time.Hour, false},
		{"upper case", "5S", 5 * time.Second, false},
		{"bare number is ms", "500", 500 * time.Millisecond, false},
		{"unknown unit", "10x", 0, true},
		{"empty", "", 0, true},
		{"garbage", "soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDuration)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		args time.Duration
		want string
	}{
		{10 * time.Minute, "10 minutes"},
		{time.Hour, "1 hour"},
		{26*time.Hour + 5*time.Minute, "1 day, 2 hours"},
		{90 * time.Second, "1 minute, 30 seconds"},
		{250 * time.Millisecond, "250 milliseconds"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.args))
		})
	}
}

func TestEmbeds(t *testing.T) {
	e := ErrorEmbed("bad input", "")
	assert.Equal(t, "Error ❌", e.Title)
	assert.Equal(t, "bad input", e.Description)
	assert.Equal(t, int(ColorRed), e.Color)
	if assert.Len(t, e.Fields, 1) {
		assert.Equal(t, DefaultSolution, e.Fields[0].Value)
	}

	h := HelpEmbed("ban", "`!ban <@user>`", "Bans a user", []string{"permban", "hammer"})
	assert.Equal(t, "Command: ban", h.Title)
	if assert.Len(t, h.Fields, 3) {
		assert.Equal(t, "`permban`, `hammer`", h.Fields[2].Value)
	}

	assert.Equal(t, int(ColorGreen), SuccessEmbed("ok").Color)
	assert.Equal(t, int(ColorOrange), WarningEmbed("hm").Color)
}
