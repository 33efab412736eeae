package pprof

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logx "pubsched/pkg/logx"
)

func TestConfigCheck(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{cfg: Config{}},
		{cfg: Config{Enabled: true}},
		{cfg: Config{Enabled: true, Addr: "localhost:7070"}},
		{cfg: Config{Enabled: true, Addr: ":6060"}, wantErr: true},
		{cfg: Config{Enabled: true, Addr: "0.0.0.0:6060", Token: "s3cret"}},
		{cfg: Config{Enabled: true, Addr: "no-port"}, wantErr: true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Check(); (err != nil) != tt.wantErr {
			t.Fatalf("Check(%+v) = %v", tt.cfg, err)
		}
	}
}

func TestHandlerAuthAndHealth(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Token: "s3cret"}, logx.Nop(), func() any { return map[string]int{"active": 3} })
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active":3`) {
		t.Fatalf("bearer: code = %d body = %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/?token=s3cret", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("query token: code = %d", rec.Code)
	}
}
