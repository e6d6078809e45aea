package utils

import (
	"errors"
	"net/url"
	"strings"
)

// NormalizeTarget turns a stored check target into a fetchable URL,
// defaulting to https when no scheme is present.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("target cannot be empty")
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", errors.New("invalid target URL")
	}
	if parsed.Hostname() == "" {
		return "", errors.New("no hostname found in target")
	}

	return strings.TrimSuffix(target, "/"), nil
}

// ExtractHost returns the bare hostname of a target, stripping any scheme,
// path, port and www. prefix.
func ExtractHost(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("target cannot be empty")
	}

	host := target
	if strings.Contains(host, "://") {
		parsed, err := url.Parse(host)
		if err != nil {
			return "", errors.New("invalid target URL")
		}
		if parsed.Hostname() == "" {
			return "", errors.New("no hostname found in target")
		}
		host = parsed.Hostname()
	} else if i := strings.IndexAny(host, "/"); i >= 0 {
		host = host[:i]
	}

	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host, "]") {
		host = host[:i]
	}

	if strings.HasPrefix(strings.ToLower(host), "www.") {
		host = host[4:]
	}

	if host == "" {
		return "", errors.New("invalid target after processing")
	}

	return host, nil
}
