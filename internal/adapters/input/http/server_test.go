package http

import (
	"context"
	"encoding/json"
	"errors"
	"led-gateway/internal/adapters/output/actuator"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/domain/service"
	"led-gateway/internal/logging"
	"led-gateway/internal/metrics"
	"led-gateway/internal/ports"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenPin fails every command for one pin.
type brokenPin struct {
	pin int
}

func (b brokenPin) Apply(ctx context.Context, pin int, state model.State) error {
	if pin == b.pin {
		return errors.New("serial write failed")
	}
	return nil
}

func (b brokenPin) Status() ports.ActuatorStatus {
	return ports.ActuatorStatus{Name: "serial", Connected: false}
}

type testDevice struct {
	handler http.Handler
	metrics *metrics.Device
}

func newTestDevice(t *testing.T, act ports.Actuator) testDevice {
	t.Helper()
	svc, err := service.NewLEDService(model.DefaultLayout(), act, logging.Discard())
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.NewDevice(reg)
	srv := NewServer(svc, logging.Discard(), m, reg)
	return testDevice{handler: srv.Handler(), metrics: m}
}

func (d testDevice) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	d.handler.ServeHTTP(rec, req)
	return rec
}

func decodeLED(t *testing.T, rec *httptest.ResponseRecorder) model.LED {
	t.Helper()
	var led model.LED
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &led))
	return led
}

func TestServer_List(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))

	for _, path := range []string{"/leds/", "/leds"} {
		rec := d.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

		var leds []model.LED
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
		require.Len(t, leds, model.DefaultLEDCount)
		assert.Equal(t, model.LED{ID: 1, Label: "LED 1", Pin: 2, State: model.StateOff}, leds[0])
	}
}

func TestServer_GetAndSwitch(t *testing.T) {
	emu := actuator.NewEmulated(logging.Discard())
	d := newTestDevice(t, emu)

	rec := d.do(t, http.MethodPost, "/leds/3/on", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.LED{ID: 3, Label: "LED 3", Pin: 4, State: model.StateOn}, decodeLED(t, rec))

	rec = d.do(t, http.MethodPost, "/leds/3/on", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateOn, decodeLED(t, rec).State)

	rec = d.do(t, http.MethodGet, "/leds/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateOn, decodeLED(t, rec).State)

	rec = d.do(t, http.MethodPost, "/leds/3/off", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateOff, decodeLED(t, rec).State)

	assert.Equal(t, []string{"ON:4", "ON:4", "OFF:4"}, emu.Commands())
	assert.Equal(t, 2.0, testutil.ToFloat64(d.metrics.Commands.WithLabelValues("on", resultOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.metrics.LEDsOn))
}

func TestServer_SetState(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))

	rec := d.do(t, http.MethodPut, "/leds/5", `{"state":"on"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateOn, decodeLED(t, rec).State)

	rec = d.do(t, http.MethodPut, "/leds/6", `{"состояние":"вкл"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StateOn, decodeLED(t, rec).State)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.metrics.LEDsOn))
}

func TestServer_SetAll(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))

	rec := d.do(t, http.MethodPut, "/leds/", `{"state":"on"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var leds []model.LED
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leds))
	require.Len(t, leds, model.DefaultLEDCount)
	for _, led := range leds {
		assert.Equal(t, model.StateOn, led.State)
	}
	assert.Equal(t, float64(model.DefaultLEDCount), testutil.ToFloat64(d.metrics.LEDsOn))
}

func TestServer_Errors(t *testing.T) {
	d := newTestDevice(t, brokenPin{pin: 4})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown id", http.MethodGet, "/leds/99", "", http.StatusNotFound, codeNotFound},
		{"non numeric id", http.MethodGet, "/leds/abc", "", http.StatusNotFound, codeNotFound},
		{"switch unknown", http.MethodPost, "/leds/0/on", "", http.StatusNotFound, codeNotFound},
		{"bad json", http.MethodPut, "/leds/1", `{`, http.StatusBadRequest, codeBadRequest},
		{"bad state", http.MethodPut, "/leds/1", `{"state":"blink"}`, http.StatusBadRequest, codeBadRequest},
		{"missing state", http.MethodPut, "/leds/1", `{}`, http.StatusBadRequest, codeBadRequest},
		{"actuator failure", http.MethodPost, "/leds/3/on", "", http.StatusBadGateway, codeActuator},
		{"bulk actuator failure", http.MethodPut, "/leds/", `{"state":"off"}`, http.StatusBadGateway, codeActuator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := d.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var apiErr APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.Commands.WithLabelValues("on", resultError)))
}

func TestServer_MethodNotAllowed(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))

	rec := d.do(t, http.MethodDelete, "/leds/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Preflight(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))

	req := httptest.NewRequest(http.MethodOptions, "/leds/1", nil)
	req.Header.Set("Origin", "http://ui.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	d.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestServer_Health(t *testing.T) {
	d := newTestDevice(t, brokenPin{pin: 2})

	rec := d.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","actuator":"serial","connected":false}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	d := newTestDevice(t, actuator.NewEmulated(logging.Discard()))
	d.do(t, http.MethodPost, "/leds/1/on", "")

	rec := d.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledgw_device_commands_total")
	assert.Contains(t, rec.Body.String(), "ledgw_device_leds_on 1")
}

func TestAdminHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewGateway(reg).Observe(http.MethodGet, metrics.OutcomeRelayed, 0)
	h := AdminHandler(reg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "ledgw_gateway_requests_total")
}

func TestServeListener_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, ln, http.NotFoundHandler(), logging.Discard())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
