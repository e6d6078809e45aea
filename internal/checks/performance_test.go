package checks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitewarden-dev/sitewarden/internal/types"
)

func TestClassifyLatency(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{100, types.StatusOK},
		{2000, types.StatusOK},
		{2001, types.StatusWarning},
		{5000, types.StatusWarning},
		{5001, types.StatusCritical},
	}

	for _, tt := range tests {
		if got := classifyLatency(tt.ms); got != tt.want {
			t.Errorf("classifyLatency(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestPerformanceRunner(t *testing.T) {
	body := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	runner := &PerformanceRunner{Client: srv.Client()}
	outcome := runner.Run(context.Background(), srv.URL, types.CheckConfig{})

	if outcome.Status != types.StatusOK {
		t.Errorf("status = %q, want ok (error: %s)", outcome.Status, outcome.Error)
	}
	if outcome.Details["bytes"] != int64(len(body)) {
		t.Errorf("bytes = %v, want %d", outcome.Details["bytes"], len(body))
	}
	if outcome.ResponseMs < 0 {
		t.Errorf("response_ms = %d, want >= 0", outcome.ResponseMs)
	}
}

func TestPerformanceRunnerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	runner := &PerformanceRunner{Client: &http.Client{}}
	outcome := runner.Run(context.Background(), url, types.CheckConfig{})

	if outcome.Status != types.StatusCritical {
		t.Errorf("status = %q, want critical", outcome.Status)
	}
}
