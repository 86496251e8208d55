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
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxPendingBytes bounds the unterminated tail a Writer keeps between writes.
const maxPendingBytes = 1 << 20

var (
	frameDelimiter = []byte("\n\n")

	errPendingOverflow = errors.New("slogslack: unterminated record exceeds buffer limit")
)

// Writer is an [io.WriteCloser] that accepts JSON log records separated by a
// blank line. Each Write dispatches every complete record concurrently and
// returns once all of those sends have settled. Records within one Write are
// not ordered relative to each other.
//
// Write never reports an error: malformed records and failed deliveries are
// sent to the forwarder's error logger instead.
type Writer struct {
	fwd *Forwarder
	ctx context.Context

	mu      sync.Mutex
	pending []byte
}

// Writer returns a new buffer-driven sink backed by f.
func (f *Forwarder) Writer() *Writer {
	return f.WriterContext(context.Background())
}

// WriterContext is like [Forwarder.Writer] but sends with ctx, so cancelling
// ctx aborts in-flight requests.
func (f *Forwarder) WriterContext(ctx context.Context) *Writer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Writer{fwd: f, ctx: ctx}
}

// Write frames p into records and forwards them. A trailing fragment that is
// not followed by a blank line is sent right away when it already holds a
// complete record, and otherwise kept byte for byte until the next Write or
// Close.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	data := append(w.pending, p...)
	w.pending = nil

	var block []byte
	if idx := bytes.LastIndex(data, frameDelimiter); idx >= 0 {
		block = data[:idx]
		data = data[idx+len(frameDelimiter):]
	}

	tail := bytes.TrimSpace(data)
	switch {
	case len(tail) == 0:
	case json.Valid(tail):
		joined := make([]byte, 0, len(block)+len(frameDelimiter)+len(tail))
		joined = append(joined, block...)
		joined = append(joined, frameDelimiter...)
		block = append(joined, tail...)
	case len(data) > maxPendingBytes:
		w.fwd.reportMalformed(w.ctx, errPendingOverflow)
	default:
		w.pending = bytes.Clone(data)
	}
	w.mu.Unlock()

	w.dispatch(block)
	return len(p), nil
}

// Close forwards whatever is left in the pending buffer. The forwarder itself
// stays open.
func (w *Writer) Close() error {
	w.mu.Lock()
	rest := w.pending
	w.pending = nil
	w.mu.Unlock()

	w.dispatch(rest)
	return nil
}

// dispatch fans the records of block out to the forwarder and waits for all
// of them to settle.
func (w *Writer) dispatch(block []byte) {
	frames := splitFrames(block)
	if len(frames) == 0 {
		return
	}

	var g errgroup.Group
	if n := w.fwd.cfg.concurrency; n > 0 {
		g.SetLimit(n)
	}
	for _, frame := range frames {
		g.Go(func() error {
			for _, rec := range w.fwd.decodeFrame(w.ctx, frame) {
				_ = w.fwd.Forward(w.ctx, rec)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// splitFrames cuts block on blank lines and drops empty frames.
func splitFrames(block []byte) [][]byte {
	var frames [][]byte
	for _, frame := range bytes.Split(block, frameDelimiter) {
		if trimmed := bytes.TrimSpace(frame); len(trimmed) > 0 {
			frames = append(frames, trimmed)
		}
	}
	return frames
}

// decodeFrame decodes one frame. A frame that is not a single JSON object is
// retried line by line so plain newline-delimited input also works.
// Undecodable input is reported and skipped.
func (f *Forwarder) decodeFrame(ctx context.Context, frame []byte) []Record {
	rec, err := DecodeRecord(frame, f.cfg.messageKey)
	if err == nil {
		return []Record{rec}
	}
	if !bytes.Contains(frame, []byte("\n")) {
		f.reportMalformed(ctx, err)
		return nil
	}

	var out []Record
	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		rec, err := DecodeRecord(line, f.cfg.messageKey)
		if err != nil {
			f.reportMalformed(ctx, err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// reportMalformed logs input that could not be turned into a record.
func (f *Forwarder) reportMalformed(ctx context.Context, err error) {
	f.metrics.malformed()
	f.cfg.errorLogger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "dropping malformed record", slog.Any("error", err))
}
