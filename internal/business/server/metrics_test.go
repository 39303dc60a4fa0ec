package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/openkcm/access-gate/internal/config"
)

func TestNewMeters(t *testing.T) {
	cfg := &config.Config{
		BaseConfig: commoncfg.BaseConfig{
			Application: commoncfg.Application{Name: "test-app"},
		},
	}

	m, err := newMeters(t.Context(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, m.requests)
	assert.NotNil(t, m.duration)
	assert.NotNil(t, m.logins)
}

func TestTraced(t *testing.T) {
	cfg := &config.Config{
		BaseConfig: commoncfg.BaseConfig{
			Application: commoncfg.Application{Name: "test-app", Environment: "test"},
		},
	}
	m, err := newMeters(t.Context(), cfg)
	require.NoError(t, err)

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodGet, "/trace-test", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()

	m.traced("trace")(next).ServeHTTP(rec, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLoginMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	srv := newTestServer(t)
	srv.login(t, `{"identifier":"x@dept.edu","secret":"correctpw"}`)
	srv.login(t, `{"identifier":"x@dept.edu","secret":"nope"}`)
	srv.login(t, `{"identifier":"x@other.com","secret":"nope"}`)
	srv.login(t, `{}`)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	outcomes := map[string]int64{}
	var requests int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch metric.Name {
				case "gate.login_count":
					outcome, _ := dp.Attributes.Value(attribute.Key(attrOutcome))
					outcomes[outcome.AsString()] += dp.Value
				case "http.request_count":
					requests += dp.Value
				}
			}
		}
	}

	assert.Equal(t, map[string]int64{
		"success":             1,
		"invalid_credentials": 2,
		"missing_fields":      1,
	}, outcomes)
	assert.Equal(t, int64(4), requests)
}
