package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks URLs the client talks to or hands to the browser.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewSourceURLValidator accepts localhost, where the news service usually
// runs, but rejects other private addresses.
func NewSourceURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveURLValidator allows any host, for LAN deployments and tests.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// NewArticleURLValidator is used before opening links from the feed in a
// browser. Articles never legitimately point at local machines.
func NewArticleURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       4096,
	}
}

// ValidateAndNormalize validates a URL and returns it normalized, without a
// trailing slash. A missing scheme defaults to https.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("URL must not embed credentials")
	}

	if err := v.validateHostSecurity(parsedURL.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if strings.Contains(strings.ToLower(parsedURL.RawQuery), "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}

	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	return parsedURL.String(), nil
}

func (v *URLValidator) validateHostSecurity(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	if isLocalhost(hostname) {
		if !v.AllowLocalhost {
			return fmt.Errorf("localhost URLs are not permitted")
		}
		return nil
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() {
			return fmt.Errorf("unspecified address %s is not permitted", hostname)
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return nil
}

// NormalizeDomain turns user input such as "https://www.CNN.com/world" into
// the bare domain "cnn.com".
func NormalizeDomain(input string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", fmt.Errorf("domain cannot be empty")
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("invalid domain %q: %w", input, err)
		}
		s = u.Hostname()
	} else if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimPrefix(strings.TrimSuffix(s, "."), "www.")

	if !strings.Contains(s, ".") {
		return "", fmt.Errorf("invalid domain %q", input)
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "", fmt.Errorf("invalid domain %q", input)
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return "", fmt.Errorf("invalid domain %q", input)
			}
		}
	}
	return s, nil
}

// NormalizeDomains normalizes every entry, dropping duplicates and keeping
// the first-seen order. The first invalid entry is reported.
func NormalizeDomains(inputs []string) ([]string, error) {
	seen := make(map[string]bool, len(inputs))
	var out []string
	for _, in := range inputs {
		d, err := NormalizeDomain(in)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsLoopback()
	}
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
