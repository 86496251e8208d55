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
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"
)

// webhookRecorder captures requests received by a fake webhook endpoint.
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []Payload
	headers  []http.Header
	status   func(Payload) int
}

// newWebhookServer starts an httptest server that records every posted
// payload and answers with status (200 when status is nil).
func newWebhookServer(t *testing.T, status func(Payload) int) (*httptest.Server, *webhookRecorder) {
	t.Helper()

	rec := &webhookRecorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var p Payload
		if err := json.Unmarshal(body, &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rec.mu.Lock()
		rec.payloads = append(rec.payloads, p)
		rec.headers = append(rec.headers, r.Header.Clone())
		rec.mu.Unlock()

		code := http.StatusOK
		if rec.status != nil {
			code = rec.status(p)
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// Payloads returns a copy of the captured payloads.
func (r *webhookRecorder) Payloads() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.payloads...)
}

// Texts returns the sorted text fields of the captured payloads.
func (r *webhookRecorder) Texts() []string {
	var texts []string
	for _, p := range r.Payloads() {
		texts = append(texts, textOf(p))
	}
	sort.Strings(texts)
	return texts
}

// Headers returns a copy of the captured request headers.
func (r *webhookRecorder) Headers() []http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]http.Header(nil), r.headers...)
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write appends p under the lock.
func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the buffered text.
func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestForwarder builds a forwarder posting to url with deterministic
// rendering and an error log captured in the returned buffer.
func newTestForwarder(t *testing.T, url string, opts ...Option) (*Forwarder, *syncBuffer) {
	t.Helper()

	errLog := &syncBuffer{}
	base := []Option{
		WithWebhookURL(url),
		WithLocation(time.UTC),
		WithInstrumentation(false),
		WithErrorLogger(slog.New(slog.NewTextHandler(errLog, nil))),
	}
	fwd := New(append(base, opts...)...)
	t.Cleanup(func() {
		if err := fwd.Close(); err != nil {
			t.Errorf("Close returned %v", err)
		}
	})
	return fwd, errLog
}

// testConfig returns a resolved configuration with deterministic rendering.
func testConfig(opts ...Option) *config {
	base := []Option{
		WithLocation(time.UTC),
		WithErrorLogger(slog.New(slog.DiscardHandler)),
	}
	return buildConfig(append(base, opts...))
}

// textOf returns the top-level text of p, or "" when it is absent.
func textOf(p Payload) string {
	if p.Text == nil {
		return ""
	}
	return *p.Text
}

// stringPtr returns a pointer to a copy of s.
func stringPtr(s string) *string {
	return &s
}
