package checks

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

type SMTPRunner struct {
	// Port overrides 25, used by tests.
	Port string
}

func (r *SMTPRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	host, err := utils.ExtractHost(target)
	if err != nil {
		return critical(start, err)
	}

	port := r.Port
	if port == "" {
		port = "25"
	}
	// A host:port target wins over the default.
	if _, p, splitErr := net.SplitHostPort(strings.TrimSpace(target)); splitErr == nil && p != "" {
		port = p
	}

	timeout := timeoutFor(cfg, defaultTimeout)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return critical(start, err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return critical(start, err)
	}

	banner, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return critical(start, err)
	}
	banner = strings.TrimSpace(banner)

	status := types.StatusWarning
	if strings.HasPrefix(banner, "220") {
		status = types.StatusOK
	}

	return Outcome{
		Status:     status,
		ResponseMs: elapsedMs(start),
		Details: map[string]any{
			"banner": banner,
			"port":   port,
		},
	}
}
