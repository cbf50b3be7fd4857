package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// URLPolicy decides which provider-supplied links may be forwarded to
// consumers that render them.
type URLPolicy struct {
	// AllowHTTP permits plain HTTP links. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback, private and link-local targets.
	AllowLocalNetworks bool
}

// DefaultCitationURLPolicy is applied to web search sources and url_citation
// annotations unless the aggregator settings say otherwise. A web search
// result pointing at loopback or an intranet host is dropped.
var DefaultCitationURLPolicy = URLPolicy{AllowHTTP: true}

// Validate rejects links with unsafe schemes such as javascript: or data:,
// links without a host, and local targets unless allowed.
func (p URLPolicy) Validate(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	switch strings.ToLower(parsed.Scheme) {
	case "https":
	case "http":
		if !p.AllowHTTP {
			return errors.New("http scheme is not allowed")
		}
	default:
		return errors.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.New("URL host is required")
	}
	if p.AllowLocalNetworks {
		return nil
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return errors.Errorf("local hostname %q is not allowed", host)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" {
			return errors.Errorf("zoned IP address %q is not allowed", host)
		}
		addr = addr.Unmap()
		if addr.IsUnspecified() || addr.IsLoopback() || addr.IsPrivate() ||
			addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
			return errors.Errorf("local network IP %q is not allowed", host)
		}
	}
	return nil
}
