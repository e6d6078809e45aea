package checks

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/sitewarden-dev/sitewarden/internal/types"
)

type fakeResolver struct {
	ips []net.IPAddr
	err error
}

func (f *fakeResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return f.ips, f.err
}

func TestDNSRunner(t *testing.T) {
	tests := []struct {
		name       string
		resolver   *fakeResolver
		wantStatus string
	}{
		{
			name: "resolvable host is ok",
			resolver: &fakeResolver{ips: []net.IPAddr{
				{IP: net.ParseIP("93.184.216.34")},
				{IP: net.ParseIP("2606:2800:220:1:248:1893:25c8:1946")},
			}},
			wantStatus: types.StatusOK,
		},
		{
			name:       "resolution failure is critical",
			resolver:   &fakeResolver{err: errors.New("no such host")},
			wantStatus: types.StatusCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &DNSRunner{Resolver: tt.resolver}
			outcome := runner.Run(context.Background(), "https://www.example.com", types.CheckConfig{})

			if outcome.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", outcome.Status, tt.wantStatus)
			}
			if outcome.Status == types.StatusOK {
				if outcome.Details["host"] != "example.com" {
					t.Errorf("host = %v, want example.com", outcome.Details["host"])
				}
				addrs, ok := outcome.Details["addresses"].([]string)
				if !ok || len(addrs) != 2 {
					t.Errorf("addresses = %v, want 2 entries", outcome.Details["addresses"])
				}
			}
		})
	}
}
