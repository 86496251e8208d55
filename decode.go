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
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

// ErrNotObject is returned by [DecodeRecord] when the input is valid JSON but
// not an object.
var ErrNotObject = errors.New("slogslack: record is not a JSON object")

var parserPool fastjson.ParserPool

// DecodeRecord parses one JSON object into a Record, routing messageKey,
// "time" and "level" to the reserved fields. Bindings keep the key order of
// the input. When a key repeats the last value wins at the position of the
// first occurrence.
func DecodeRecord(data []byte, messageKey string) (Record, error) {
	if messageKey == "" {
		messageKey = DefaultMessageKey
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return Record{}, fmt.Errorf("slogslack: decode record: %w", err)
	}
	obj, err := v.Object()
	if err != nil {
		return Record{}, ErrNotObject
	}

	var rec Record
	var seen map[string]int
	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		converted := convertValue(val)
		switch k {
		case messageKey, TimeKey, LevelKey:
			rec.set(k, converted, messageKey)
			return
		}
		if i, dup := seen[k]; dup {
			rec.Bindings[i].Value = converted
			return
		}
		if seen == nil {
			seen = make(map[string]int)
		}
		seen[k] = len(rec.Bindings)
		rec.Bindings = append(rec.Bindings, Binding{Key: k, Value: converted})
	})
	return rec, nil
}

// decodeValue parses arbitrary JSON into the value shapes understood by
// flatten.
func decodeValue(data []byte) (any, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("slogslack: decode value: %w", err)
	}
	return convertValue(v), nil
}

// convertValue copies a parsed fastjson value out of the parser's arena.
// Objects become Bindings, arrays []any, numbers float64.
func convertValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, _ := v.Object()
		var out Bindings
		var seen map[string]int
		obj.Visit(func(key []byte, val *fastjson.Value) {
			k := string(key)
			converted := convertValue(val)
			if i, dup := seen[k]; dup {
				out[i].Value = converted
				return
			}
			if seen == nil {
				seen = make(map[string]int)
			}
			seen[k] = len(out)
			out = append(out, Binding{Key: k, Value: converted})
		})
		if out == nil {
			out = Bindings{}
		}
		return out
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = convertValue(item)
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
