package checks

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/sitewarden-dev/sitewarden/internal/types"
	"github.com/sitewarden-dev/sitewarden/internal/utils"
)

const (
	sslCriticalDays = 7
	sslWarningDays  = 30
)

type SSLRunner struct {
	// Port overrides 443, used by tests.
	Port string
}

func (r *SSLRunner) Run(ctx context.Context, target string, cfg types.CheckConfig) Outcome {
	start := time.Now()

	host, err := utils.ExtractHost(target)
	if err != nil {
		return critical(start, err)
	}

	port := r.Port
	if port == "" {
		port = "443"
	}

	timeout := timeoutFor(cfg, defaultTimeout)
	dialer := &net.Dialer{Timeout: timeout}

	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, port), &tls.Config{
		ServerName: host,
	})
	if err != nil {
		// Handshake and verification failures land here.
		return critical(start, err)
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return critical(start, errors.New("no certificate presented"))
	}

	cert := certs[0]
	now := time.Now()
	status, days := classifyExpiry(cert.NotAfter, now)

	return Outcome{
		Status:     status,
		ResponseMs: elapsedMs(start),
		Details: map[string]any{
			"expires_at":     cert.NotAfter.UTC().Format(time.RFC3339),
			"days_remaining": days,
			"issuer":         cert.Issuer.CommonName,
			"subject":        cert.Subject.CommonName,
		},
	}
}

// classifyExpiry maps a certificate expiry to a status: critical under 7
// days, warning under 30, ok otherwise.
func classifyExpiry(notAfter, now time.Time) (string, int) {
	days := int(notAfter.Sub(now).Hours() / 24)
	switch {
	case days < sslCriticalDays:
		return types.StatusCritical, days
	case days < sslWarningDays:
		return types.StatusWarning, days
	default:
		return types.StatusOK, days
	}
}
