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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pjscruggs/slogslack"
)

// maxLineBytes bounds a single input record.
const maxLineBytes = 1 << 20

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slogslack",
		Short: "Forward JSON log records from stdin to a chat webhook",
		Long: `slogslack reads one JSON log record per line on stdin and posts each
record to an incoming webhook as a rich message. Records are sent in order,
one request at a time. Failed deliveries are reported on stderr and skipped.

Examples:
  myservice | slogslack --webhook-url https://hooks.slack.com/services/...
  SLOGSLACK_WEBHOOK_URL=... myservice | slogslack --channel-key channel
  slogslack config --config slogslack.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runForward,
		Version:       slogslack.Version,
	}
	registerFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runPrintConfig,
	})
	return root
}

// runForward pipes stdin records to the webhook until EOF or a signal.
func runForward(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.WebhookURL == "" {
		return errors.New("no webhook URL: set --webhook-url or SLOGSLACK_WEBHOOK_URL")
	}

	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
	opts, err := cfg.options(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal while blocked on stdin terminates immediately.
	context.AfterFunc(ctx, stop)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, slogslack.WithMetrics(reg))
		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	fwd := slogslack.New(opts...)
	defer func() { _ = fwd.Close() }()

	err = fwd.Consume(ctx, scanRecords(cmd.InOrStdin(), cfg.MessageKey, logger))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runPrintConfig writes the merged configuration with the webhook secret
// redacted.
func runPrintConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg.redacted()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// scanRecords yields one record per non-empty input line. Lines that are not
// JSON objects are reported and skipped.
func scanRecords(r io.Reader, messageKey string, logger *slog.Logger) iter.Seq[slogslack.Record] {
	return func(yield func(slogslack.Record) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
		line := 0
		for sc.Scan() {
			line++
			raw := sc.Bytes()
			if len(raw) == 0 {
				continue
			}
			rec, err := slogslack.DecodeRecord(raw, messageKey)
			if err != nil {
				logger.Warn("skipping malformed record", slog.Int("line", line), slog.Any("error", err))
				continue
			}
			if !yield(rec) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Error("read stdin", slog.Any("error", err))
		}
	}
}

// serveMetrics exposes reg on addr and returns a function that stops the
// server.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
