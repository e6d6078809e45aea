package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitewarden-dev/sitewarden/internal/types"
)

func TestUptimeRunner(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		cfg        types.CheckConfig
		wantStatus string
	}{
		{
			name:       "200 is ok",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: types.StatusOK,
		},
		{
			name: "unexpected status is warning",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantStatus: types.StatusWarning,
		},
		{
			name: "server error is critical",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: types.StatusCritical,
		},
		{
			name: "configured expected status is ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			cfg:        types.CheckConfig{ExpectedStatus: http.StatusNoContent},
			wantStatus: types.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			runner := &UptimeRunner{Client: srv.Client()}
			outcome := runner.Run(context.Background(), srv.URL, tt.cfg)

			if outcome.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (error: %s)", outcome.Status, tt.wantStatus, outcome.Error)
			}
		})
	}
}

func TestUptimeRunnerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	runner := &UptimeRunner{Client: &http.Client{}}
	outcome := runner.Run(context.Background(), url, types.CheckConfig{})

	if outcome.Status != types.StatusCritical {
		t.Errorf("status = %q, want critical", outcome.Status)
	}
	if outcome.Error == "" {
		t.Error("expected error to be recorded")
	}
}

func TestUptimeRunnerInvalidTarget(t *testing.T) {
	runner := &UptimeRunner{Client: &http.Client{}}
	outcome := runner.Run(context.Background(), "", types.CheckConfig{})

	if outcome.Status != types.StatusCritical {
		t.Errorf("status = %q, want critical", outcome.Status)
	}
}
