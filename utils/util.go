package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration")

func TrimChannelString(chStr string) string {
	chStr = strings.TrimPrefix(chStr, "<#")
	chStr = strings.TrimSuffix(chStr, ">")
	return chStr
}

// TrimUserMention turns <@id> or <@!id> into id.
func TrimUserMention(s string) string {
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimSuffix(s, ">")
	return s
}

func TrimRoleMention(s string) string {
	s = strings.TrimPrefix(s, "<@&")
	s = strings.TrimSuffix(s, ">")
	return s
}

// IsSnowflake reports whether s looks like a discord id.
func IsSnowflake(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func ParseSnowflake(id string) (time.Time, error) {
	n, err := strconv.ParseInt(id, 0, 63)
	if err != nil {
		return time.Now(), err
	}
	return time.Unix(((n>>22)+1420070400000)/1000, 0), nil
}

var durationRe = regexp.MustCompile(`^(-?(?:\d+)?\.?\d+) *([a-z]*)$`)

var durationUnits = map[string]time.Duration{
	"":             time.Millisecond,
	"ms":           time.Millisecond,
	"msec":         time.Millisecond,
	"msecs":        time.Millisecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"secs":         time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"m":            time.Minute,
	"min":          time.Minute,
	"mins":         time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hr":           time.Hour,
	"hrs":          time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
	"w":            7 * 24 * time.Hour,
	"week":         7 * 24 * time.Hour,
	"weeks":        7 * 24 * time.Hour,
	"y":            365*24*time.Hour + 6*time.Hour,
	"yr":           365*24*time.Hour + 6*time.Hour,
	"yrs":          365*24*time.Hour + 6*time.Hour,
	"year":         365*24*time.Hour + 6*time.Hour,
	"years":        365*24*time.Hour + 6*time.Hour,
}

// ParseDuration parses short human durations such as "10m", "1.5h", "2 days" or "500".
// A bare number is read as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || len(s) > 100 {
		return 0, ErrInvalidDuration
	}
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidDuration
	}
	unit, ok := durationUnits[m[2]]
	if !ok {
		return 0, ErrInvalidDuration
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, ErrInvalidDuration
	}
	d := n * float64(unit)
	if math.Abs(d) > math.MaxInt64 {
		return 0, ErrInvalidDuration
	}
	return time.Duration(d), nil
}

// FormatDuration renders d with its two largest units, e.g. "1 day, 2 hours".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d milliseconds", d.Milliseconds())
	}

	units := []struct {
		name string
		size time.Duration
	}{
		{"week", 7 * 24 * time.Hour},
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
		{"second", time.Second},
	}

	var parts []string
	for _, u := range units {
		if len(parts) == 2 {
			break
		}
		n := d / u.size
		if n == 0 {
			continue
		}
		d -= n * u.size
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %v", n, name))
	}
	return strings.Join(parts, ", ")
}
