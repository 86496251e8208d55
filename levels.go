// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogslack

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Level is a numeric log severity on the scale used by the webhook color map.
// It matches the levels written by common JSON loggers in other ecosystems so
// piped records keep their colors, and [LevelFromSlog] maps slog levels onto
// the same scale.
type Level int

const (
	// LevelTrace is the most verbose severity.
	LevelTrace Level = 10
	// LevelDebug marks diagnostic records.
	LevelDebug Level = 20
	// LevelInfo marks routine records. Colored green by default.
	LevelInfo Level = 30
	// LevelWarn marks records that need attention. Colored yellow by default.
	LevelWarn Level = 40
	// LevelError marks failures. Colored red by default.
	LevelError Level = 50
	// LevelFatal marks failures the process cannot survive. Colored red by default.
	LevelFatal Level = 60
)

// String returns the lower-case level name, or "LEVEL(n)" for values that are
// not one of the named constants.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Slog returns the slog level closest to l.
func (l Level) Slog() slog.Level {
	switch {
	case l < LevelDebug:
		return slog.LevelDebug - 4
	case l < LevelInfo:
		return slog.LevelDebug
	case l < LevelWarn:
		return slog.LevelInfo
	case l < LevelError:
		return slog.LevelWarn
	case l < LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// LevelFromSlog maps a slog level onto the numeric scale. Levels between the
// standard slog constants round down to the nearest named level.
func LevelFromSlog(level slog.Level) Level {
	switch {
	case level < slog.LevelDebug:
		return LevelTrace
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	case level < slog.LevelError+4:
		return LevelError
	default:
		return LevelFatal
	}
}

// ParseLevel accepts a level name ("info", "WARN", "warning") or an integer
// on the numeric scale.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("slogslack: unknown level %q", s)
	}
	return Level(n), nil
}

// levelOf interprets the raw level value of a record. Only integral numbers
// are levels; anything else yields ok == false and therefore no color.
func levelOf(v any) (Level, bool) {
	switch n := v.(type) {
	case Level:
		return n, true
	case int:
		return Level(n), true
	case int8:
		return Level(n), true
	case int16:
		return Level(n), true
	case int32:
		return Level(n), true
	case int64:
		return Level(n), true
	case uint:
		return Level(n), true
	case uint8:
		return Level(n), true
	case uint16:
		return Level(n), true
	case uint32:
		return Level(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return Level(n), true
	case float32:
		return levelOfFloat(float64(n))
	case float64:
		return levelOfFloat(n)
	case slog.Level:
		return LevelFromSlog(n), true
	case string:
		// Color maps are keyed by the decimal form, so "30" selects like 30.
		if i, err := strconv.Atoi(n); err == nil && strconv.Itoa(i) == n {
			return Level(i), true
		}
	}
	return 0, false
}

// levelOfFloat accepts floats that hold an exact integer.
func levelOfFloat(f float64) (Level, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return Level(int(f)), true
}
