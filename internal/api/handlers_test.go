package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LeventeLantos/sms-automation/internal/automation"
	"github.com/LeventeLantos/sms-automation/internal/cache"
	"github.com/LeventeLantos/sms-automation/internal/dispatch"
	"github.com/LeventeLantos/sms-automation/internal/display"
	"github.com/LeventeLantos/sms-automation/internal/model"
)

type okDispatcher struct{}

func (okDispatcher) Dispatch(ctx context.Context, recipient, body string) (model.Receipt, error) {
	return model.Receipt{RemoteID: "remote-1", SentAt: time.Now()}, nil
}

type fakeReceipts struct {
	items map[string]model.Receipt
}

var _ cache.ReceiptCache = (*fakeReceipts)(nil)

func (f *fakeReceipts) StoreSent(ctx context.Context, entryID string, r model.Receipt) error {
	f.items[entryID] = r
	return nil
}

func (f *fakeReceipts) Lookup(ctx context.Context, entryID string) (model.Receipt, error) {
	r, ok := f.items[entryID]
	if !ok {
		return model.Receipt{}, cache.ErrNotFound
	}
	return r, nil
}

func newTestServer(t *testing.T, rc cache.ReceiptCache) (*automation.Controller, http.Handler) {
	t.Helper()

	ctrl := automation.New(okDispatcher{}, dispatch.Native, 160, automation.DefaultLogCapacity)
	t.Cleanup(func() {
		ctrl.Stop()
		ctrl.Wait()
	})

	h := NewHandler(ctrl, rc, display.Renderer{Location: time.UTC, ContentMax: 160})
	return ctrl, Router(h, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode json: %v body=%q", err, rr.Body.String())
	}
	return m
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeJSON(t, rr)
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodGet, "/v1/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	body := decodeJSON(t, rr)
	if v, ok := body["ok"].(bool); !ok || !v {
		t.Fatalf("expected {ok:true}, got %v", body)
	}
}

func TestAutomationEndpoints(t *testing.T) {
	ctrl, mux := newTestServer(t, nil)

	// Initially idle.
	{
		rr := do(t, mux, http.MethodGet, "/v1/automation/status", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || running {
			t.Fatalf("expected running=false, got %v", body)
		}
		if body["badge"] != "Native Mode - Real SMS" {
			t.Fatalf("expected native badge, got %v", body["badge"])
		}
	}

	// Start
	{
		rr := do(t, mux, http.MethodPost, "/v1/automation/start",
			`{"phoneNumber":"(555) 123-4567","message":"hi","interval":1,"unit":"minutes"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || !running {
			t.Fatalf("expected running=true after start, got %v", body)
		}
		cfg, _ := body["config"].(map[string]any)
		if cfg["phoneNumber"] != "5551234567" {
			t.Fatalf("expected normalized phone number in config, got %v", cfg)
		}
	}

	// Second start conflicts.
	{
		rr := do(t, mux, http.MethodPost, "/v1/automation/start",
			`{"phoneNumber":"5551234567","message":"again","interval":5}`)
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d body=%q", rr.Code, rr.Body.String())
		}
		if code := errorCode(t, rr); code != "ALREADY_RUNNING" {
			t.Fatalf("expected ALREADY_RUNNING, got %q", code)
		}
	}

	deadline := time.Now().Add(time.Second)
	for ctrl.SentCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for the immediate send")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Stop
	{
		rr := do(t, mux, http.MethodPost, "/v1/automation/stop", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || running {
			t.Fatalf("expected running=false after stop, got %v", body)
		}
		if stopped, ok := body["stopped"].(bool); !ok || !stopped {
			t.Fatalf("expected stopped=true, got %v", body)
		}
		if n, ok := body["sentCount"].(float64); !ok || n != 1 {
			t.Fatalf("expected sentCount=1, got %v", body)
		}
	}

	// Stop again is a no-op.
	{
		rr := do(t, mux, http.MethodPost, "/v1/automation/stop", "")
		body := decodeJSON(t, rr)
		if stopped, ok := body["stopped"].(bool); !ok || stopped {
			t.Fatalf("expected stopped=false when idle, got %v", body)
		}
	}
}

func TestStart_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"short phone", `{"phoneNumber":"555","message":"hi","interval":10}`, "INVALID_PHONE_NUMBER"},
		{"blank message", `{"phoneNumber":"5551234567","message":"   ","interval":10}`, "EMPTY_MESSAGE"},
		{"long message", `{"phoneNumber":"5551234567","message":"` + strings.Repeat("x", 161) + `","interval":10}`, "MESSAGE_TOO_LONG"},
		{"zero interval", `{"phoneNumber":"5551234567","message":"hi","interval":0}`, "INVALID_INTERVAL"},
		{"unknown unit", `{"phoneNumber":"5551234567","message":"hi","interval":1,"unit":"hours"}`, "INVALID_INTERVAL"},
		{"interval past duration range", `{"phoneNumber":"5551234567","message":"hi","interval":200000000,"unit":"minutes"}`, "INVALID_INTERVAL"},
		{"empty body", ``, "INVALID_JSON"},
		{"bad json", `{"phoneNumber":`, "INVALID_JSON"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl, mux := newTestServer(t, nil)

			rr := do(t, mux, http.MethodPost, "/v1/automation/start", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%q", rr.Code, rr.Body.String())
			}
			if code := errorCode(t, rr); code != tc.want {
				t.Fatalf("expected %s, got %q", tc.want, code)
			}
			if ctrl.IsRunning() {
				t.Fatalf("expected automation to stay idle")
			}
		})
	}
}

func TestLogsAndReceipt(t *testing.T) {
	rc := &fakeReceipts{items: map[string]model.Receipt{}}
	ctrl, mux := newTestServer(t, rc)
	ctrl.WithCache(rc)

	if err := ctrl.Start(model.Configuration{
		Recipient: "5551234567",
		Body:      "hi",
		Interval:  model.Interval{Magnitude: 1, Unit: model.Minutes},
	}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for ctrl.SentCount() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for the immediate send")
		}
		time.Sleep(5 * time.Millisecond)
	}
	ctrl.Stop()
	ctrl.Wait()

	rr := do(t, mux, http.MethodGet, "/v1/logs", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	items, ok := decodeJSON(t, rr)["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one log item, got %v", rr.Body.String())
	}
	entry := items[0].(map[string]any)
	if entry["status"] != "sent" {
		t.Fatalf("expected sent entry, got %v", entry)
	}

	id := entry["id"].(string)
	rr = do(t, mux, http.MethodGet, "/v1/logs/"+id+"/receipt", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if got := decodeJSON(t, rr)["remoteMessageId"]; got != "remote-1" {
		t.Fatalf("expected remote id, got %v", got)
	}

	rr = do(t, mux, http.MethodGet, "/v1/logs/missing/receipt", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReceipt_NoCacheReturns404(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodGet, "/v1/logs/abc/receipt", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%q", rr.Code, rr.Body.String())
	}
	if code := errorCode(t, rr); code != "RECEIPT_NOT_FOUND" {
		t.Fatalf("expected RECEIPT_NOT_FOUND, got %q", code)
	}
}

func TestActivity_RendersText(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodGet, "/v1/activity", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), display.EmptyLog) {
		t.Fatalf("expected empty log text, got %q", rr.Body.String())
	}
}

func TestFormatPhone(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodGet, "/v1/phone/format?number=5551234567", "")
	body := decodeJSON(t, rr)
	if body["display"] != "(555) 123-4567" || body["digits"] != "5551234567" || body["valid"] != true {
		t.Fatalf("unexpected format response %v", body)
	}

	rr = do(t, mux, http.MethodGet, "/v1/phone/format?number=555", "")
	body = decodeJSON(t, rr)
	if body["display"] != "555" || body["valid"] != false {
		t.Fatalf("unexpected format response %v", body)
	}
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := do(t, h, http.MethodGet, "/", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %q", code)
	}
}

func TestRouterRoot(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodGet, "/", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "sms-automation" {
		t.Fatalf("expected body %q, got %q", "sms-automation", got)
	}
}

func TestRouterMetrics(t *testing.T) {
	ctrl := automation.New(okDispatcher{}, dispatch.Simulated, 160, automation.DefaultLogCapacity)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	mux := Router(NewHandler(ctrl, nil, display.Renderer{}), metrics)

	rr := do(t, mux, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics" {
		t.Fatalf("expected metrics handler, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestStart_UnknownUnitMessageIsSingleLine(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rr := do(t, mux, http.MethodPost, "/v1/automation/start",
		`{"phoneNumber":"5551234567","message":"hi","interval":1,"unit":"hours"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%q", rr.Code, rr.Body.String())
	}

	e, _ := decodeJSON(t, rr)["error"].(map[string]any)
	msg, _ := e["message"].(string)
	if strings.Contains(msg, "\n") {
		t.Fatalf("expected a single-line message, got %q", msg)
	}
	if !strings.HasPrefix(msg, "invalid send interval: ") || !strings.Contains(msg, `"hours"`) {
		t.Fatalf("unexpected message %q", msg)
	}
}
