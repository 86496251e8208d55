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

	"go.opentelemetry.io/otel/trace"
)

const (
	// TraceIDKey is the binding holding the hex trace ID when trace bindings
	// are enabled.
	TraceIDKey = "trace_id"
	// SpanIDKey is the binding holding the hex span ID when trace bindings
	// are enabled.
	SpanIDKey = "span_id"
)

// traceBindings returns trace and span ID bindings for the span in ctx, or
// nil when ctx carries no valid span context.
func traceBindings(ctx context.Context) Bindings {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return Bindings{
		{Key: TraceIDKey, Value: sc.TraceID().String()},
		{Key: SpanIDKey, Value: sc.SpanID().String()},
	}
}
