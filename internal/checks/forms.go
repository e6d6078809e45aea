package checks

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

// Pages a WordPress site is likely to host a form on, probed after the
// homepage.
var likelyFormPages = []string{"/contact", "/contact-us", "/about", "/support"}

// Markup fingerprints of common WordPress form plugins.
var formPluginFingerprints = map[string]string{
	"contact_form_7": "wpcf7",
	"wpforms":        "wpforms",
	"gravity_forms":  "gform_wrapper",
	"ninja_forms":    "nf-form",
}

var csrfTokenMarkers = []string{"_wpnonce", "csrf", "_token"}

var captchaMarkers = []string{"recaptcha", "hcaptcha", "captcha"}

const maxFormBodyBytes = 512 * 1024

type FormsRunner struct {
	Client *http.Client
}

func (r *FormsRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	base, err := utils.NormalizeTarget(target)
	if err != nil {
		return critical(start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutFor(cfg, longTimeout))
	defer cancel()

	home, err := r.fetch(ctx, base)
	if err != nil {
		return critical(start, err)
	}

	pages := map[string]string{"/": home}
	for _, path := range likelyFormPages {
		// Secondary pages are best-effort; a 404 or timeout there is not
		// a site fault.
		body, err := r.fetch(ctx, base+path)
		if err != nil {
			continue
		}
		pages[path] = body
	}

	formsFound := 0
	plugins := map[string]bool{}
	findings := []string{}

	for path, body := range pages {
		lower := strings.ToLower(body)
		if !strings.Contains(lower, "<form") {
			continue
		}
		formsFound++

		for plugin, marker := range formPluginFingerprints {
			if strings.Contains(lower, marker) {
				plugins[plugin] = true
			}
		}

		if !containsAny(lower, csrfTokenMarkers) {
			findings = append(findings, "form without CSRF token at "+path)
		}
		if !containsAny(lower, captchaMarkers) {
			findings = append(findings, "form without CAPTCHA at "+path)
		}
	}

	status := types.StatusOK
	if len(findings) > 0 {
		status = types.StatusWarning
	}

	pluginNames := make([]string, 0, len(plugins))
	for p := range plugins {
		pluginNames = append(pluginNames, p)
	}

	return Outcome{
		Status:     status,
		ResponseMs: elapsedMs(start),
		Details: map[string]any{
			"forms_found":   formsFound,
			"pages_crawled": len(pages),
			"plugins":       pluginNames,
			"findings":      findings,
		},
	}
}

func (r *FormsRunner) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", io.EOF
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFormBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
