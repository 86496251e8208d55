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
	"context"
	"log/slog"
)

// Handler is a [slog.Handler] that forwards every enabled record through a
// [Forwarder]. Handle waits for the webhook round trip, so records from one
// goroutine arrive in order; wrap the handler in an asynchronous handler if
// logging calls must not block on the network.
//
// Handle always returns nil. Delivery failures go to the forwarder's error
// logger.
type Handler struct {
	fwd    *Forwarder
	attrs  []groupedAttr
	groups []string
}

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

// Handler returns a slog handler backed by f. Its minimum level comes from
// [WithLevel].
func (f *Forwarder) Handler() *Handler {
	return &Handler{fwd: f}
}

// NewHandler is shorthand for New(opts...).Handler().
func NewHandler(opts ...Option) *Handler {
	return New(opts...).Handler()
}

// Forwarder returns the forwarder the handler sends through.
func (h *Handler) Forwarder() *Forwarder {
	return h.fwd
}

// Enabled reports whether level meets the configured minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.fwd.cfg.level.Level()
}

// Handle converts r into a [Record] and forwards it.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	rec := Record{
		Message: r.Message,
		Level:   LevelFromSlog(r.Level),
	}
	if !r.Time.IsZero() {
		rec.Time = r.Time
	}

	for _, ga := range h.attrs {
		rec.Bindings = appendAttr(rec.Bindings, nest(ga.groups, ga.attr))
	}
	r.Attrs(func(attr slog.Attr) bool {
		rec.Bindings = appendAttr(rec.Bindings, nest(h.groups, attr))
		return true
	})
	if h.fwd.cfg.traceBindings {
		rec.Bindings = append(rec.Bindings, traceBindings(ctx)...)
	}

	_ = h.fwd.Forward(ctx, rec)
	return nil
}

// WithAttrs returns a child handler that adds attrs under the current groups.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	grouped := append([]groupedAttr(nil), h.attrs...)
	for _, attr := range attrs {
		grouped = append(grouped, groupedAttr{groups: h.groups, attr: attr})
	}
	return &Handler{fwd: h.fwd, attrs: grouped, groups: h.groups}
}

// WithGroup returns a child handler that nests subsequent attributes under
// name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string(nil), h.groups...), name)
	return &Handler{fwd: h.fwd, attrs: h.attrs, groups: groups}
}

// Close closes the underlying forwarder.
func (h *Handler) Close() error {
	return h.fwd.Close()
}

// nest wraps attr in one group attribute per entry of groups, innermost last.
func nest(groups []string, attr slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		attr = slog.Attr{Key: groups[i], Value: slog.GroupValue(attr)}
	}
	return attr
}
