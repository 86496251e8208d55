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
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	envWebhookURL   = "SLOGSLACK_WEBHOOK_URL"
	envChannelKey   = "SLOGSLACK_CHANNEL_KEY"
	envMessageKey   = "SLOGSLACK_MESSAGE_KEY"
	envImageURLKey  = "SLOGSLACK_IMAGE_URL_KEY"
	envExcludedKeys = "SLOGSLACK_EXCLUDED_KEYS"
	envColors       = "SLOGSLACK_COLORS"
	envKeepAlive    = "SLOGSLACK_KEEP_ALIVE"
	envLevel        = "SLOGSLACK_LEVEL"
	envMessageLimit = "SLOGSLACK_MESSAGE_LIMIT"
	envTimeout      = "SLOGSLACK_TIMEOUT"
)

// DefaultColors returns the default level to color mapping. Each call returns
// a fresh map.
func DefaultColors() map[Level]string {
	return map[Level]string{
		LevelInfo:  "#2EB67D",
		LevelWarn:  "#ECB22E",
		LevelError: "#E01E5A",
		LevelFatal: "#E01E5A",
	}
}

// DefaultExcludedKeys returns the binding names omitted from the field list
// unless overridden.
func DefaultExcludedKeys() []string {
	return []string{"hostname", "pid"}
}

// Option configures a [Forwarder] during [New]. Options are applied in order,
// so later options win over earlier ones and over [WithEnv].
type Option func(*config)

type config struct {
	webhookURL      string
	channelKey      string
	colors          map[Level]string
	excludedKeys    map[string]struct{}
	imageURLKey     string
	messageKey      string
	keepAlive       bool
	messageLimit    int
	maxDepth        int
	timeout         time.Duration
	location        *time.Location
	level           slog.Leveler
	traceBindings   bool
	instrument      bool
	concurrency     int
	httpClient      *http.Client
	errorLogger     *slog.Logger
	metricsRegistry prometheus.Registerer
}

// defaultConfig returns the configuration used when no options are given.
func defaultConfig() config {
	cfg := config{
		colors:       DefaultColors(),
		messageKey:   DefaultMessageKey,
		messageLimit: DefaultMessageLimit,
		maxDepth:     DefaultMaxDepth,
		location:     time.Local,
		level:        slog.LevelInfo,
		instrument:   true,
		errorLogger:  defaultErrorLogger(),
	}
	cfg.excludedKeys = keySet(DefaultExcludedKeys())
	return cfg
}

// buildConfig applies opts over the defaults.
func buildConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.errorLogger == nil {
		cfg.errorLogger = defaultErrorLogger()
	}
	if cfg.location == nil {
		cfg.location = time.Local
	}
	return &cfg
}

// defaultErrorLogger reports delivery failures as text on stderr.
func defaultErrorLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil)).With(slog.String("logger", "slogslack"))
}

// WithWebhookURL sets the incoming webhook URL. It is not validated until a
// record is sent.
func WithWebhookURL(url string) Option {
	trimmed := strings.TrimSpace(url)
	return func(c *config) {
		c.webhookURL = trimmed
	}
}

// WithChannelKey names the binding whose value overrides the destination
// channel. By default the channel configured for the webhook is used.
func WithChannelKey(key string) Option {
	return func(c *config) {
		c.channelKey = key
	}
}

// WithColors replaces the level to color mapping. Levels missing from colors
// are sent without a color.
func WithColors(colors map[Level]string) Option {
	dup := maps.Clone(colors)
	return func(c *config) {
		if dup == nil {
			dup = map[Level]string{}
		}
		c.colors = dup
	}
}

// WithExcludedKeys replaces the set of top-level binding names left out of
// the field list. Pass no keys to include every binding.
func WithExcludedKeys(keys ...string) Option {
	set := keySet(keys)
	return func(c *config) {
		c.excludedKeys = set
	}
}

// WithImageURLKey names the binding whose string value is attached as an image.
func WithImageURLKey(key string) Option {
	return func(c *config) {
		c.imageURLKey = key
	}
}

// WithMessageKey changes the record key that holds the message text. The
// default is "msg".
func WithMessageKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.messageKey = key
		}
	}
}

// WithKeepAlive makes every send share one connection pool. Without it each
// request dials a fresh connection.
func WithKeepAlive(enabled bool) Option {
	return func(c *config) {
		c.keepAlive = enabled
	}
}

// WithMessageLimit sets how many characters of the message are kept before
// "..." is appended. Values <= 0 disable truncation.
func WithMessageLimit(limit int) Option {
	return func(c *config) {
		c.messageLimit = limit
	}
}

// WithMaxDepth bounds how deep nested bindings are expanded. Values <= 0
// remove the bound.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithTimeout bounds each webhook request. Zero, the default, leaves the
// request unbounded apart from the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLocation sets the time zone used for the fallback date text.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		c.location = loc
	}
}

// WithLevel sets the minimum slog level accepted by [Handler].
func WithLevel(level slog.Leveler) Option {
	return func(c *config) {
		if level != nil {
			c.level = level
		}
	}
}

// WithTraceBindings adds trace_id and span_id bindings to records handled
// through [Handler] when the context carries a valid OpenTelemetry span.
func WithTraceBindings(enabled bool) Option {
	return func(c *config) {
		c.traceBindings = enabled
	}
}

// WithInstrumentation toggles the otelhttp wrapper around the webhook
// transport. It is on by default and has no effect with [WithHTTPClient].
func WithInstrumentation(enabled bool) Option {
	return func(c *config) {
		c.instrument = enabled
	}
}

// WithConcurrency bounds how many sends a single [Writer.Write] runs at once.
// Values <= 0 leave the fan-out unbounded.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithHTTPClient sends through client instead of a client built from the
// keep-alive and timeout options.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithErrorLogger sets where delivery failures are reported. The default
// writes text records to stderr. The logger must not be backed by the
// forwarder's own [Handler].
func WithErrorLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.errorLogger = logger
	}
}

// WithMetrics registers delivery counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.metricsRegistry = reg
	}
}

// WithEnv overlays configuration from SLOGSLACK_* environment variables.
// Invalid values are reported to the error logger configured so far and
// otherwise ignored.
func WithEnv() Option {
	return func(c *config) {
		applyEnv(c)
	}
}

// applyEnv reads SLOGSLACK_* variables into c.
func applyEnv(c *config) {
	logger := c.errorLogger
	if v := strings.TrimSpace(os.Getenv(envWebhookURL)); v != "" {
		c.webhookURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envChannelKey)); v != "" {
		c.channelKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envMessageKey)); v != "" {
		c.messageKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envImageURLKey)); v != "" {
		c.imageURLKey = v
	}
	if v, ok := os.LookupEnv(envExcludedKeys); ok {
		c.excludedKeys = keySet(splitList(v))
	}
	if v := strings.TrimSpace(os.Getenv(envColors)); v != "" {
		if colors, err := ParseColors(v); err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid colors environment variable", slog.String("value", v), slog.Any("error", err))
		} else {
			c.colors = colors
		}
	}
	if v := strings.TrimSpace(os.Getenv(envKeepAlive)); v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid boolean environment variable", slog.String("variable", envKeepAlive), slog.String("value", v))
		} else {
			c.keepAlive = b
		}
	}
	if v := strings.TrimSpace(os.Getenv(envLevel)); v != "" {
		if lvl, err := ParseLevel(v); err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid log level environment variable", slog.String("value", v))
		} else {
			c.level = lvl.Slog()
		}
	}
	if v := strings.TrimSpace(os.Getenv(envMessageLimit)); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid message limit environment variable", slog.String("value", v))
		} else {
			c.messageLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(envTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err != nil {
			logDiagnostic(logger, slog.LevelWarn, "invalid timeout environment variable", slog.String("value", v))
		} else {
			c.timeout = d
		}
	}
}

// ParseColors parses "30=#2EB67D,40=#ECB22E" into a level to color mapping.
// Level names are accepted in place of numbers.
func ParseColors(s string) (map[Level]string, error) {
	colors := make(map[Level]string)
	for _, pair := range splitList(s) {
		name, color, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("slogslack: color entry %q is not level=color", pair)
		}
		level, err := ParseLevel(name)
		if err != nil {
			return nil, err
		}
		colors[level] = strings.TrimSpace(color)
	}
	return colors, nil
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// keySet builds a lookup set from keys.
func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}

// logDiagnostic emits internal diagnostic messages, guarding against nil
// loggers in tests.
func logDiagnostic(logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}
