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
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// maxDrainBytes bounds how much of a webhook response body is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

// Forwarder formats log records as chat messages and posts each one to an
// incoming webhook. It is safe for concurrent use. Records are independent:
// a failed delivery is reported to the error logger and never affects other
// records.
type Forwarder struct {
	cfg       *config
	client    *http.Client
	transport *http.Transport
	metrics   *metrics
	closeOnce sync.Once
}

// New builds a Forwarder. It never fails: a missing or malformed webhook URL
// only surfaces as a delivery failure when a record is sent.
//
// Example:
//
//	fwd := slogslack.New(
//		slogslack.WithWebhookURL(os.Getenv("SLACK_WEBHOOK_URL")),
//		slogslack.WithChannelKey("channel"),
//		slogslack.WithKeepAlive(true),
//	)
//	defer fwd.Close()
//	logger := slog.New(fwd.Handler())
//	logger.Error("payment failed", "order", 42)
func New(opts ...Option) *Forwarder {
	cfg := buildConfig(opts)
	f := &Forwarder{
		cfg:     cfg,
		metrics: newMetrics(cfg.metricsRegistry),
	}
	if cfg.httpClient != nil {
		f.client = cfg.httpClient
	} else {
		f.client, f.transport = newHTTPClient(cfg)
	}
	return f
}

// Forward formats rec and posts it to the webhook, waiting for the response.
// Any failure, including a panic while formatting, is reported to the error
// logger and returned; sink surfaces built on Forward discard the returned
// error.
func (f *Forwarder) Forward(ctx context.Context, rec Record) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("slogslack: recovered panic while forwarding record: %v", r)
		}
		f.metrics.observe(err, time.Since(start))
		if err != nil {
			f.report(ctx, err)
		}
	}()

	return f.send(ctx, buildPayload(rec, f.cfg))
}

// Consume forwards records in arrival order, waiting for each delivery before
// pulling the next record. Delivery failures do not stop consumption; only a
// cancelled ctx does, in which case its error is returned.
func (f *Forwarder) Consume(ctx context.Context, records iter.Seq[Record]) error {
	for rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = f.Forward(ctx, rec)
	}
	return nil
}

// Close releases idle pooled connections. In-flight sends are not waited for.
// It is safe to call multiple times.
func (f *Forwarder) Close() error {
	f.closeOnce.Do(func() {
		if f.transport != nil {
			f.transport.CloseIdleConnections()
		}
	})
	return nil
}

// send encodes payload and posts it.
func (f *Forwarder) send(ctx context.Context, payload Payload) error {
	if f.cfg.webhookURL == "" {
		return ErrMissingWebhookURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slogslack: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slogslack: build request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("slogslack: post webhook: %w", redact(err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	return checkResponse(resp)
}

// report writes a delivery failure to the error logger.
func (f *Forwarder) report(ctx context.Context, err error) {
	attrs := []slog.Attr{slog.Any("error", err)}
	if host := webhookHost(f.cfg.webhookURL); host != "" {
		attrs = append(attrs, slog.String("webhook_host", host))
	}
	var derr *DeliveryError
	if errors.As(err, &derr) {
		attrs = append(attrs, slog.Int("status", derr.StatusCode))
	}
	f.cfg.errorLogger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "webhook delivery failed", attrs...)
}

// redact strips the path and query from URLs embedded in err. Incoming
// webhook URLs carry their secret in the path.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redactURL(uerr.URL)
	}
	return err
}

// redactURL keeps only the scheme and host of raw.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	return u.Scheme + "://" + u.Host + "/[redacted]"
}

// webhookHost returns the host of raw, or "" when it does not parse.
func webhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
