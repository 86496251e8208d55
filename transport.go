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
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
)

var (
	// ErrMissingWebhookURL is reported when a record is sent without a
	// configured webhook URL.
	ErrMissingWebhookURL = errors.New("slogslack: webhook URL not configured")

	// ErrDeliveryFailed matches every [DeliveryError] via errors.Is.
	ErrDeliveryFailed = errors.New("slogslack: delivery failed")
)

// DeliveryError reports a webhook response outside the 2xx range.
type DeliveryError struct {
	StatusCode int
	Status     string
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("slogslack: webhook responded %s", e.Status)
}

// Is reports whether target is ErrDeliveryFailed.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDeliveryFailed
}

// newHTTPClient builds the client shared by every send. With keep-alive the
// transport pools connections; without it every request dials afresh. The
// otelhttp wrapper records client spans but never injects trace headers into
// the third-party webhook request.
func newHTTPClient(cfg *config) (*http.Client, *http.Transport) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DisableKeepAlives = !cfg.keepAlive

	var rt http.RoundTripper = base
	if cfg.instrument {
		rt = otelhttp.NewTransport(base,
			otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator()),
			otelhttp.WithSpanNameFormatter(func(string, *http.Request) string {
				return "slogslack.webhook"
			}),
		)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.timeout,
	}, base
}

// checkResponse classifies a webhook response.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &DeliveryError{StatusCode: resp.StatusCode, Status: resp.Status}
}
