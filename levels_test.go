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
	"log/slog"
	"math"
	"testing"
)

// TestLevelFromSlog maps the standard slog levels onto the numeric scale.
func TestLevelFromSlog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want Level
	}{
		{slog.LevelDebug - 4, LevelTrace},
		{slog.LevelDebug, LevelDebug},
		{slog.LevelInfo, LevelInfo},
		{slog.LevelInfo + 2, LevelInfo},
		{slog.LevelWarn, LevelWarn},
		{slog.LevelError, LevelError},
		{slog.LevelError + 4, LevelFatal},
	}
	for _, tt := range tests {
		if got := LevelFromSlog(tt.in); got != tt.want {
			t.Errorf("LevelFromSlog(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got := LevelFromSlog(tt.want.Slog()); got != tt.want {
			t.Errorf("round trip of %v = %v", tt.want, got)
		}
	}
}

// TestParseLevel accepts names and numbers.
func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]Level{
		"info":    LevelInfo,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
		"fatal":   LevelFatal,
		"trace":   LevelTrace,
		"debug":   LevelDebug,
		"35":      Level(35),
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// TestLevelString renders names and unnamed values.
func TestLevelString(t *testing.T) {
	t.Parallel()

	if got := LevelWarn.String(); got != "warn" {
		t.Fatalf("LevelWarn.String() = %q", got)
	}
	if got := Level(35).String(); got != "LEVEL(35)" {
		t.Fatalf("Level(35).String() = %q", got)
	}
}

// TestLevelOf verifies which raw level values select a color.
func TestLevelOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want Level
		ok   bool
	}{
		{name: "float", in: float64(30), want: LevelInfo, ok: true},
		{name: "int", in: 40, want: LevelWarn, ok: true},
		{name: "level", in: LevelError, want: LevelError, ok: true},
		{name: "slog level", in: slog.LevelWarn, want: LevelWarn, ok: true},
		{name: "decimal string", in: "50", want: LevelError, ok: true},
		{name: "fraction", in: 30.5},
		{name: "nan", in: math.NaN()},
		{name: "name string", in: "info"},
		{name: "padded string", in: "030"},
		{name: "nil", in: nil},
		{name: "huge uint", in: uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		got, ok := levelOf(tt.in)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%s: level = %v, want %v", tt.name, got, tt.want)
		}
	}
}
