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
	"math"
	"strings"
	"time"
)

const (
	invalidDate = "Invalid Date"

	// dateFallbackLayout renders the human readable text shown by clients
	// that cannot format date tokens.
	dateFallbackLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

	// maxEpochMillis is the largest distance from the epoch a timestamp may
	// have before it is treated as invalid.
	maxEpochMillis = 8.64e15
)

// timeLayouts lists the accepted date strings. Date-times without an offset
// are wall-clock times in the configured location; date-only strings are UTC
// midnight.
var timeLayouts = []struct {
	layout string
	local  bool
}{
	{layout: time.RFC3339Nano},
	{layout: time.RFC3339},
	{layout: "2006-01-02T15:04:05.999999999", local: true},
	{layout: "2006-01-02 15:04:05.999999999", local: true},
	{layout: time.DateOnly},
}

// parseTime interprets the raw "time" value of a record. Numbers are epoch
// milliseconds. A missing or null value is invalid, as is anything that does
// not parse; callers fall back to the invalid-date rendering instead of
// failing the record. loc resolves strings that carry no offset.
func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case float64:
		return fromEpochMillis(t)
	case float32:
		return fromEpochMillis(float64(t))
	case int:
		return fromEpochMillis(float64(t))
	case int64:
		return fromEpochMillis(float64(t))
	case int32:
		return fromEpochMillis(float64(t))
	case uint64:
		return fromEpochMillis(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpochMillis(f)
	case string:
		trimmed := strings.TrimSpace(t)
		if loc == nil {
			loc = time.Local
		}
		for _, candidate := range timeLayouts {
			zone := time.UTC
			if candidate.local {
				zone = loc
			}
			if parsed, err := time.ParseInLocation(candidate.layout, trimmed, zone); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// fromEpochMillis converts fractional epoch milliseconds to a time.
func fromEpochMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	ms = math.Trunc(ms)
	secs := math.Floor(ms / 1000)
	nanos := (ms - secs*1000) * float64(time.Millisecond)
	return time.Unix(int64(secs), int64(nanos)), true
}

// dateText renders the context element text for a record timestamp. Valid
// times embed floor(ms/1000) in a date token with a fallback rendering in loc;
// invalid ones only carry the invalid-date fallback because the token needs an
// integer.
func dateText(t time.Time, valid bool, loc *time.Location) string {
	if !valid {
		return "Posted " + invalidDate
	}
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("<!date^%d^Posted {date_pretty} at {time_secs}|Posted %s>",
		t.Unix(), t.In(loc).Format(dateFallbackLayout))
}
