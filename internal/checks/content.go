package checks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

// ContentChangeRunner hashes the response body and compares it against the
// baseline stored in the check config. A differing hash is a change, not
// necessarily a fault, so it reports warning; the scheduler persists the
// new hash as the next baseline.
type ContentChangeRunner struct {
	Client *http.Client
}

func (r *ContentChangeRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
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

	hasher := sha256.New()
	if _, err := io.Copy(hasher, resp.Body); err != nil {
		return critical(start, err)
	}
	hash := hex.EncodeToString(hasher.Sum(nil))

	details := map[string]any{
		"content_hash": hash,
		"changed":      false,
	}

	status := types.StatusOK
	switch {
	case cfg.ContentHash == "":
		details["first_run"] = true
	case cfg.ContentHash != hash:
		status = types.StatusWarning
		details["changed"] = true
		details["previous_hash"] = cfg.ContentHash
	}

	return Outcome{Status: status, ResponseMs: elapsedMs(start), Details: details}
}
