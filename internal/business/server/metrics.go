package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/access-gate/internal/config"
	"github.com/openkcm/access-gate/internal/middleware/responsewriter"
)

const attrOutcome = "outcome"

type meters struct {
	app      commoncfg.Application
	requests metric.Int64Counter
	duration metric.Int64Histogram
	logins   metric.Int64Counter
}

func newMeters(ctx context.Context, cfg *config.Config) (*meters, error) {
	meter := otel.Meter(
		"access-gate/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
		metric.WithInstrumentationAttributes(otlp.CreateAttributesFrom(cfg.Application)...),
	)

	m := &meters{app: cfg.Application}

	var err error

	m.requests, err = meter.Int64Counter(
		"http.request_count",
		metric.WithDescription("Incoming request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating request_count meter")
	}

	m.duration, err = meter.Int64Histogram(
		"http.duration",
		metric.WithDescription("Incoming end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating duration meter")
	}

	m.logins, err = meter.Int64Counter(
		"gate.login_count",
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("attempt"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating login_count meter")
	}

	return m, nil
}

// recordLogin counts a login attempt under its outward outcome.
func (m *meters) recordLogin(ctx context.Context, outcome string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(
		otlp.CreateAttributesFrom(m.app, attribute.String(attrOutcome, outcome))...,
	))
}

// traced returns middleware that gives every request of operation a request
// ID, a span and the request metrics.
func (m *meters) traced(operation string) func(http.Handler) http.Handler {
	traceAttrs := otlp.CreateAttributesFrom(m.app, attribute.String(commoncfg.AttrOperation, operation))
	tracer := otel.Tracer(operation, trace.WithInstrumentationAttributes(traceAttrs...))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := slogctx.With(r.Context(),
				commoncfg.AttrRequestID, uuid.NewString(),
				commoncfg.AttrOperation, operation,
			)

			parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(parentCtx, operation+"-span", trace.WithAttributes(traceAttrs...))
			defer span.End()

			rec := responsewriter.Wrap(w)
			requestStartTime := time.Now()

			defer func() {
				elapsedTime := time.Since(requestStartTime)

				attrs := metric.WithAttributes(
					otlp.CreateAttributesFrom(m.app,
						attribute.String("userAgent", r.UserAgent()),
						attribute.String(commoncfg.AttrOperation, operation),
						attribute.String("status", strconv.Itoa(rec.Status())),
					)...,
				)

				m.requests.Add(ctx, 1, attrs)
				m.duration.Record(ctx, elapsedTime.Milliseconds(), attrs)
			}()

			slogctx.Debug(ctx, fmt.Sprintf("Processing %s request", operation))
			next.ServeHTTP(rec, r.WithContext(ctx))
			slogctx.Debug(ctx, fmt.Sprintf("Finished %s request", operation), "status", rec.Status())
		})
	}
}
