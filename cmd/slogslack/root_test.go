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

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pjscruggs/slogslack"
)

// newCaptureServer records the text of every posted payload in arrival order.
func newCaptureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()

	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p slogslack.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var text string
		if p.Text != nil {
			text = *p.Text
		}
		mu.Lock()
		texts = append(texts, text)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), texts...)
	}
}

// TestRunForwardPipesStdin forwards each stdin line in order.
func TestRunForwardPipesStdin(t *testing.T) {
	t.Parallel()

	srv, texts := newCaptureServer(t)
	input := strings.Join([]string{
		`{"msg":"first","level":30,"time":1700000000000}`,
		``,
		`not json`,
		`{"msg":"second","level":50}`,
	}, "\n")

	var stderr bytes.Buffer
	root := newRootCmd()
	root.SetIn(strings.NewReader(input))
	root.SetErr(&stderr)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--webhook-url", srv.URL})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, texts()); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stderr.String(), "skipping malformed record") {
		t.Fatalf("stderr missing malformed report: %s", stderr.String())
	}
}

// TestRunForwardRequiresWebhookURL refuses to start without a destination.
func TestRunForwardRequiresWebhookURL(t *testing.T) {
	t.Setenv("SLOGSLACK_WEBHOOK_URL", "")

	root := newRootCmd()
	root.SetIn(strings.NewReader(""))
	root.SetErr(io.Discard)
	root.SetOut(io.Discard)
	root.SetArgs(nil)

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no webhook URL") {
		t.Fatalf("error = %v, want missing webhook URL", err)
	}
}

// TestPrintConfigRedactsWebhook prints YAML without the webhook secret.
func TestPrintConfigRedactsWebhook(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"config", "--webhook-url", "https://hooks.example.com/services/T/B/SECRET", "--message-key", "message"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	out := stdout.String()
	if strings.Contains(out, "SECRET") {
		t.Fatalf("config output leaks secret:\n%s", out)
	}
	for _, want := range []string{
		"webhook-url: https://hooks.example.com/[redacted]",
		"message-key: message",
		"timeout: 10s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

// TestScanRecordsStopsEarly honors a consumer that stops iterating.
func TestScanRecordsStopsEarly(t *testing.T) {
	t.Parallel()

	input := "{\"msg\":\"a\"}\n{\"msg\":\"b\"}\n{\"msg\":\"c\"}\n"
	logger := slog.New(slog.DiscardHandler)

	var got []any
	for rec := range scanRecords(strings.NewReader(input), "msg", logger) {
		got = append(got, rec.Message)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}
