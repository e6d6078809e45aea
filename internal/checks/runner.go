package checks

import (
	"context"
	"net/http"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
)

// Outcome is the result of one probe execution. Runners never return
// errors: every transport or protocol failure is captured as a critical
// outcome with Error set.
type Outcome struct {
	Status     string
	ResponseMs int
	Details    map[string]any
	Error      string
}

type Runner interface {
	Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome
}

const (
	defaultTimeout = 10 * time.Second
	longTimeout    = 15 * time.Second // forms and performance crawl more
)

// Registry maps check types to their runners.
type Registry struct {
	runners map[string]Runner
}

func NewRegistry() *Registry {
	client := &http.Client{Timeout: defaultTimeout}
	slowClient := &http.Client{Timeout: longTimeout}

	return &Registry{
		runners: map[string]Runner{
			types.CheckUptime:          &UptimeRunner{Client: client},
			types.CheckSSL:             &SSLRunner{},
			types.CheckDNS:             &DNSRunner{},
			types.CheckSMTP:            &SMTPRunner{},
			types.CheckSecurityHeaders: &SecurityHeadersRunner{Client: client},
			types.CheckForms:           &FormsRunner{Client: slowClient},
			types.CheckPerformance:     &PerformanceRunner{Client: slowClient},
			types.CheckContentChange:   &ContentChangeRunner{Client: client},
		},
	}
}

func (r *Registry) Runner(checkType string) (Runner, bool) {
	runner, ok := r.runners[checkType]
	return runner, ok
}

func critical(start time.Time, err error) Outcome {
	return Outcome{
		Status:     types.StatusCritical,
		ResponseMs: elapsedMs(start),
		Details:    map[string]any{},
		Error:      err.Error(),
	}
}

func elapsedMs(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}

func timeoutFor(cfg types.CheckConfig, fallback time.Duration) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return fallback
}
