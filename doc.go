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

// Package slogslack forwards structured log records to a chat-ops incoming
// webhook (Slack and compatible endpoints) as rich messages. Every record
// becomes one best-effort HTTP POST: there is no batching, no retry and no
// persistent queue, and a failed delivery never propagates to the code that
// logged the record.
//
// The primary entry point is [New], which returns a [Forwarder]. A forwarder
// exposes three sinks:
//   - [Forwarder.Handler] returns a [log/slog] handler that sends each
//     record synchronously.
//   - [Forwarder.Consume] drains an iterator of [Record] values in order.
//   - [Forwarder.Writer] returns an [io.WriteCloser] that accepts JSON records
//     separated by blank lines and sends the records of one write
//     concurrently.
//
// # Message layout
//
// The record message (key "msg" by default) is posted as the message text and
// as a code block, truncated to 2500 characters. A context block renders the
// record "time" as a client-localized date. All other keys are bindings: they
// are flattened into dotted field names ("req.method") and attached together
// with a color chosen by the numeric "level". The keys "hostname" and "pid"
// are left out by default.
//
// # Quick Start
//
//	fwd := slogslack.New(
//		slogslack.WithWebhookURL("https://hooks.slack.com/services/..."),
//		slogslack.WithLevel(slog.LevelWarn),
//	)
//	defer fwd.Close()
//
//	logger := slog.New(fwd.Handler())
//	logger.Warn("disk almost full", "mount", "/var", "used_pct", 93)
//
// # Configuration
//
// Use functional options such as [WithChannelKey], [WithColors],
// [WithExcludedKeys], [WithImageURLKey], [WithMessageKey] and
// [WithKeepAlive]. [WithEnv] reads the same settings from SLOGSLACK_*
// environment variables. Delivery failures are written to stderr unless
// [WithErrorLogger] supplies another logger, and [WithMetrics] exports
// delivery counters to Prometheus.
package slogslack
