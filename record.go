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
	"time"
)

const (
	// DefaultMessageKey is the record key holding the human readable message.
	DefaultMessageKey = "msg"
	// TimeKey is the reserved record key holding the record timestamp.
	TimeKey = "time"
	// LevelKey is the reserved record key holding the numeric severity.
	LevelKey = "level"
)

// Binding is one non-reserved key/value pair attached to a record.
type Binding struct {
	Key   string
	Value any
}

// Bindings is an ordered set of bindings. It doubles as the nested value type
// for composite bindings so decoded objects keep their key order.
type Bindings []Binding

// Get returns the value of the first binding named key.
func (b Bindings) Get(key string) (any, bool) {
	for _, binding := range b {
		if binding.Key == key {
			return binding.Value, true
		}
	}
	return nil, false
}

// Without returns the bindings whose key is not in excluded. The receiver is
// not modified.
func (b Bindings) Without(excluded map[string]struct{}) Bindings {
	if len(excluded) == 0 {
		return b
	}
	out := make(Bindings, 0, len(b))
	for _, binding := range b {
		if _, skip := excluded[binding.Key]; skip {
			continue
		}
		out = append(out, binding)
	}
	return out
}

// Record is one structured log entry. Message, Time and Level hold the raw
// values found under the reserved keys and stay nil when the key was absent.
// Everything else lives in Bindings.
//
// Message is rendered only when it is a string. Time accepts epoch
// milliseconds as any numeric type, a [time.Time], or an RFC 3339 string.
// Level selects a color when it is an integral number.
type Record struct {
	Message  any
	Time     any
	Level    any
	Bindings Bindings
}

// NewRecord builds a record with a string message, a timestamp and a level.
// Bindings are taken from attrs in order; slog groups become nested bindings.
func NewRecord(msg string, t time.Time, level Level, attrs ...slog.Attr) Record {
	rec := Record{
		Message: msg,
		Time:    t,
		Level:   level,
	}
	for _, attr := range attrs {
		rec.Bindings = appendAttr(rec.Bindings, attr)
	}
	return rec
}

// RecordFromMap splits a generic map into a record using messageKey for the
// message. Map iteration order is not stable, so bindings are sorted by key.
func RecordFromMap(m map[string]any, messageKey string) Record {
	if messageKey == "" {
		messageKey = DefaultMessageKey
	}
	rec := Record{}
	for _, key := range sortedKeys(m) {
		rec.set(key, m[key], messageKey)
	}
	return rec
}

// set routes a top-level key/value pair to its reserved field or to the
// bindings.
func (r *Record) set(key string, value any, messageKey string) {
	switch key {
	case messageKey:
		r.Message = value
	case TimeKey:
		r.Time = value
	case LevelKey:
		r.Level = value
	default:
		r.Bindings = append(r.Bindings, Binding{Key: key, Value: value})
	}
}

// appendAttr converts a slog attribute into a binding. Empty attributes are
// dropped and group attributes nest, matching slog's own handlers.
func appendAttr(dst Bindings, attr slog.Attr) Bindings {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() != slog.KindGroup {
		return append(dst, Binding{Key: attr.Key, Value: attrValue(attr.Value)})
	}
	var nested Bindings
	for _, child := range attr.Value.Group() {
		nested = appendAttr(nested, child)
	}
	if len(nested) == 0 {
		return dst
	}
	if attr.Key == "" {
		return append(dst, nested...)
	}
	return append(dst, Binding{Key: attr.Key, Value: nested})
}

// attrValue unwraps a resolved, non-group slog value.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration()
	case slog.KindTime:
		return v.Time()
	default:
		return v.Any()
	}
}
