package checks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

const (
	perfCriticalMs = 5000
	perfWarningMs  = 2000
)

type PerformanceRunner struct {
	Client *http.Client
}

func (r *PerformanceRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	url, err := utils.NormalizeTarget(target)
	if err != nil {
		return critical(start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutFor(cfg, longTimeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return critical(start, err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return critical(start, err)
	}
	defer resp.Body.Close()

	// Wall-clock time includes draining the payload.
	size, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return critical(start, err)
	}

	ms := elapsedMs(start)

	return Outcome{
		Status:     classifyLatency(ms),
		ResponseMs: ms,
		Details: map[string]any{
			"response_ms": ms,
			"bytes":       size,
			"status_code": resp.StatusCode,
		},
	}
}

func classifyLatency(ms int) string {
	switch {
	case ms > perfCriticalMs:
		return types.StatusCritical
	case ms > perfWarningMs:
		return types.StatusWarning
	default:
		return types.StatusOK
	}
}
