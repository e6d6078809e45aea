package checks

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

type ipResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type DNSRunner struct {
	// Resolver defaults to the system resolver.
	Resolver ipResolver
}

func (r *DNSRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	host, err := utils.ExtractHost(target)
	if err != nil {
		return critical(start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutFor(cfg, defaultTimeout))
	defer cancel()

	resolver := r.Resolver
	if resolver == nil {
		resolver = &net.Resolver{}
	}

	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return critical(start, fmt.Errorf("failed to resolve %s: %w", host, err))
	}

	addresses := make([]string, 0, len(ips))
	for _, ip := range ips {
		addresses = append(addresses, ip.IP.String())
	}

	return Outcome{
		Status:     types.StatusOK,
		ResponseMs: elapsedMs(start),
		Details: map[string]any{
			"host":      host,
			"addresses": addresses,
		},
	}
}
