package checks

import (
	"context"
	"net"
	"testing"

	"github.com/sitewarden-dev/sitewarden/internal/types"
)

// startBannerServer accepts one connection at a time and writes banner.
func startBannerServer(t *testing.T, banner string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte(banner + "\r\n"))
			conn.Close()
		}
	}()

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	return port
}

func TestSMTPRunner(t *testing.T) {
	tests := []struct {
		name       string
		banner     string
		wantStatus string
	}{
		{"220 greeting is ok", "220 mail.example.com ESMTP ready", types.StatusOK},
		{"421 greeting is warning", "421 service not available", types.StatusWarning},
		{"garbage greeting is warning", "hello", types.StatusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := startBannerServer(t, tt.banner)

			runner := &SMTPRunner{Port: port}
			outcome := runner.Run(context.Background(), "127.0.0.1", types.CheckConfig{TimeoutSeconds: 2})

			if outcome.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (error: %s)", outcome.Status, tt.wantStatus, outcome.Error)
			}
			if tt.wantStatus != types.StatusCritical && outcome.Details["banner"] != tt.banner {
				t.Errorf("banner = %v, want %q", outcome.Details["banner"], tt.banner)
			}
		})
	}
}

func TestSMTPRunnerConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	runner := &SMTPRunner{Port: port}
	outcome := runner.Run(context.Background(), "127.0.0.1", types.CheckConfig{TimeoutSeconds: 2})

	if outcome.Status != types.StatusCritical {
		t.Errorf("status = %q, want critical", outcome.Status)
	}
}
