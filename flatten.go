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
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxDepth bounds how many levels of nested bindings are expanded
	// into dotted field names.
	DefaultMaxDepth = 16

	depthExceeded = "[max depth exceeded]"
)

// flatField is one dotted-path leaf produced by flatten.
type flatField struct {
	Path  string
	Value string
}

type pendingValue struct {
	path  string
	depth int
	value any
}

// flatten expands nested bindings into dotted paths with string values. The
// traversal is pre-order over an explicit stack so adversarial nesting cannot
// grow the goroutine stack; composites found at maxDepth render as a single
// depthExceeded leaf. Empty composites contribute no fields. maxDepth <= 0
// disables the bound.
func flatten(bindings Bindings, maxDepth int) []flatField {
	out := make([]flatField, 0, len(bindings))
	stack := make([]pendingValue, 0, len(bindings))
	for i := len(bindings) - 1; i >= 0; i-- {
		stack = append(stack, pendingValue{path: bindings[i].Key, depth: 1, value: bindings[i].Value})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, composite := childrenOf(top.value)
		if !composite {
			out = append(out, flatField{Path: top.path, Value: stringify(top.value)})
			continue
		}
		if maxDepth > 0 && top.depth >= maxDepth {
			out = append(out, flatField{Path: top.path, Value: depthExceeded})
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pendingValue{
				path:  top.path + "." + children[i].Key,
				depth: top.depth + 1,
				value: children[i].Value,
			})
		}
	}
	return out
}

// childrenOf reports whether v is a composite value and returns its entries in
// rendering order.
func childrenOf(v any) (Bindings, bool) {
	switch c := v.(type) {
	case nil:
		return nil, false
	case Bindings:
		return c, true
	case []Binding:
		return Bindings(c), true
	case map[string]any:
		out := make(Bindings, 0, len(c))
		for _, key := range sortedKeys(c) {
			out = append(out, Binding{Key: key, Value: c[key]})
		}
		return out, true
	case []any:
		out := make(Bindings, len(c))
		for i, elem := range c {
			out[i] = Binding{Key: strconv.Itoa(i), Value: elem}
		}
		return out, true
	case []slog.Attr:
		var out Bindings
		for _, attr := range c {
			out = appendAttr(out, attr)
		}
		return out, true
	case slog.Value:
		resolved := c.Resolve()
		if resolved.Kind() != slog.KindGroup {
			return childrenOf(attrValue(resolved))
		}
		return childrenOf(resolved.Group())
	case string, bool, float64, float32, int, int64, int32, uint64,
		time.Time, time.Duration, error, fmt.Stringer, []byte, json.Number:
		return nil, false
	}
	return reflectChildren(reflect.ValueOf(v))
}

// reflectChildren handles composite kinds that are not covered by the fast
// paths in childrenOf. Structs go through their JSON encoding so json tags and
// custom marshalers decide which fields show up.
func reflectChildren(rv reflect.Value) (Bindings, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return childrenOf(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			switch {
			case a.String() < b.String():
				return -1
			case a.String() > b.String():
				return 1
			}
			return 0
		})
		out := make(Bindings, 0, len(keys))
		for _, key := range keys {
			out = append(out, Binding{Key: key.String(), Value: rv.MapIndex(key).Interface()})
		}
		return out, true
	case reflect.Slice, reflect.Array:
		out := make(Bindings, rv.Len())
		for i := range rv.Len() {
			out[i] = Binding{Key: strconv.Itoa(i), Value: rv.Index(i).Interface()}
		}
		return out, true
	case reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, false
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, false
		}
		return childrenOf(value)
	}
	return nil, false
}

// stringify renders a leaf value. JSON scalars render the way they appear in
// the source JSON: null, true/false, and the shortest round-trip number form.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return formatNumber(s)
	case float32:
		return formatNumber(float64(s))
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case json.Number:
		return s.String()
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case time.Duration:
		return s.String()
	case error:
		return s.Error()
	case fmt.Stringer:
		return s.String()
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "null"
	}
	return fmt.Sprint(v)
}

// formatNumber prints f without a trailing ".0", switching to exponent form
// outside [1e-6, 1e21) like JavaScript number formatting.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return strings.NewReplacer("e+0", "e+", "e-0", "e-").Replace(s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
