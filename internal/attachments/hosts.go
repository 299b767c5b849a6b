// ABOUTME: Decides which hosts may receive the bot's bearer token
// ABOUTME: Bot Framework hosts are always trusted; extra hosts and loopback are opt-in
package attachments

import (
	"net"
	"net/url"
	"strings"
)

// botFrameworkHosts are trusted in addition to any *.botframework.com host
var botFrameworkHosts = []string{"botframework.com", "smba.trafficmanager.net"}

// TrustedHosts is the set of service hosts allowed to see the bot token.
// Extra entries match a host exactly, or any subdomain when written as *.example.com.
type TrustedHosts struct {
	Extra         []string
	AllowLoopback bool
}

// Allows reports whether rawURL points at a trusted host over https.
// Loopback hosts may use plain http when AllowLoopback is set.
func (t TrustedHosts) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	if isLoopback(host) {
		return t.AllowLoopback && (u.Scheme == "http" || u.Scheme == "https")
	}
	if u.Scheme != "https" {
		return false
	}

	if strings.HasSuffix(host, ".botframework.com") {
		return true
	}
	for _, h := range botFrameworkHosts {
		if host == h {
			return true
		}
	}
	for _, pattern := range t.Extra {
		if matchHost(strings.ToLower(strings.TrimSpace(pattern)), host) {
			return true
		}
	}
	return false
}

// SameHost reports whether two URLs name the same host and port
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

func matchHost(pattern, host string) bool {
	if pattern == "" {
		return false
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(host, "."+suffix)
	}
	return host == pattern
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
