package checks

import (
	"context"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

type UptimeRunner struct {
	Client *http.Client
}

func (r *UptimeRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	url, err := utils.NormalizeTarget(target)
	if err != nil {
		return critical(start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutFor(cfg, defaultTimeout))
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

	expected := cfg.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}

	details := map[string]any{
		"status_code":     resp.StatusCode,
		"expected_status": expected,
	}

	status := types.StatusOK
	switch {
	case resp.StatusCode >= 500:
		status = types.StatusCritical
	case resp.StatusCode != expected:
		status = types.StatusWarning
	}

	return Outcome{Status: status, ResponseMs: elapsedMs(start), Details: details}
}
