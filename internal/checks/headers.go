package checks

import (
	"context"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

var requiredHeaders = []string{
	"Strict-Transport-Security",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Content-Security-Policy",
	"Referrer-Policy",
	"Permissions-Policy",
}

type SecurityHeadersRunner struct {
	Client *http.Client
}

func (r *SecurityHeadersRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
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

	present := map[string]bool{}
	missing := []string{}
	for _, h := range requiredHeaders {
		ok := resp.Header.Get(h) != ""
		present[h] = ok
		if !ok {
			missing = append(missing, h)
		}
	}

	score := headerScore(len(requiredHeaders)-len(missing), len(requiredHeaders))

	status := types.StatusOK
	switch {
	case score < 50:
		status = types.StatusCritical
	case score < 80:
		status = types.StatusWarning
	}

	return Outcome{
		Status:     status,
		ResponseMs: elapsedMs(start),
		Details: map[string]any{
			"score":   score,
			"headers": present,
			"missing": missing,
		},
	}
}

func headerScore(present, required int) int {
	if required == 0 {
		return 100
	}
	return present * 100 / required
}
