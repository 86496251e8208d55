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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDecodeRecordRoutesReservedKeys verifies reserved keys leave the bindings.
func TestDecodeRecordRoutesReservedKeys(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte(`{"level":30,"time":1700000000000,"pid":1,"msg":"hi","z":{"b":1,"a":[true,null]},"y":"s"}`), "")
	if err != nil {
		t.Fatalf("DecodeRecord returned error: %v", err)
	}

	want := Record{
		Message: "hi",
		Time:    float64(1700000000000),
		Level:   float64(30),
		Bindings: Bindings{
			{Key: "pid", Value: float64(1)},
			{Key: "z", Value: Bindings{
				{Key: "b", Value: float64(1)},
				{Key: "a", Value: []any{true, nil}},
			}},
			{Key: "y", Value: "s"},
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeRecordCustomMessageKey treats the default key as a plain binding.
func TestDecodeRecordCustomMessageKey(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte(`{"message":"custom","msg":"plain"}`), "message")
	if err != nil {
		t.Fatalf("DecodeRecord returned error: %v", err)
	}
	if rec.Message != "custom" {
		t.Fatalf("Message = %v, want custom", rec.Message)
	}
	want := Bindings{{Key: "msg", Value: "plain"}}
	if diff := cmp.Diff(want, rec.Bindings); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeRecordDuplicateKeys keeps the first position and the last value.
func TestDecodeRecordDuplicateKeys(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte(`{"a":1,"b":2,"a":3}`), "msg")
	if err != nil {
		t.Fatalf("DecodeRecord returned error: %v", err)
	}
	want := Bindings{{Key: "a", Value: float64(3)}, {Key: "b", Value: float64(2)}}
	if diff := cmp.Diff(want, rec.Bindings); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeRecordEmptyObject keeps empty nested objects as empty bindings.
func TestDecodeRecordEmptyObject(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte(`{"empty":{}}`), "msg")
	if err != nil {
		t.Fatalf("DecodeRecord returned error: %v", err)
	}
	want := Bindings{{Key: "empty", Value: Bindings{}}}
	if diff := cmp.Diff(want, rec.Bindings); diff != "" {
		t.Fatalf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestDecodeRecordErrors covers invalid and non-object input.
func TestDecodeRecordErrors(t *testing.T) {
	t.Parallel()

	if _, err := DecodeRecord([]byte(`[1,2]`), "msg"); !errors.Is(err, ErrNotObject) {
		t.Fatalf("array input error = %v, want ErrNotObject", err)
	}
	if _, err := DecodeRecord([]byte(`"str"`), "msg"); !errors.Is(err, ErrNotObject) {
		t.Fatalf("string input error = %v, want ErrNotObject", err)
	}
	if _, err := DecodeRecord([]byte(`{"a":`), "msg"); err == nil {
		t.Fatal("expected error for truncated input")
	}
	if _, err := DecodeRecord(nil, "msg"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

// TestDecodedRecordRendersFields runs decoded input through the payload builder.
func TestDecodedRecordRendersFields(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte(`{"msg":"m","req":{"method":"GET","headers":{"host":"h"}},"n":1.50}`), "msg")
	if err != nil {
		t.Fatalf("DecodeRecord returned error: %v", err)
	}
	payload := buildPayload(rec, testConfig())
	if len(payload.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(payload.Attachments))
	}
	want := []Field{
		{Title: "req.method", Value: "GET", Short: true},
		{Title: "req.headers.host", Value: "h", Short: true},
		{Title: "n", Value: "1.5", Short: true},
	}
	if diff := cmp.Diff(want, payload.Attachments[0].Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
