package agent

import (
	"net/url"
	"strings"
)

// Blocklist rejects locations on configured hosts. The check runs after
// every executed UI call, on the post-action location, so a navigation that
// lands on a blocked host aborts the turn immediately.
type Blocklist struct {
	hosts []string
}

// NewBlocklist normalizes the configured host list. Entries are matched as
// exact hosts or as parent domains (a blocked "example.com" also blocks
// "portal.example.com").
func NewBlocklist(hosts []string) *Blocklist {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			normalized = append(normalized, h)
		}
	}
	return &Blocklist{hosts: normalized}
}

// Check returns a *BlockedURLError when rawURL's host is blocked. Unparsable
// URLs pass: the blocklist is a guard rail, not a validator.
func (b *Blocklist) Check(rawURL string) error {
	if len(b.hosts) == 0 || rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	for _, blocked := range b.hosts {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return &BlockedURLError{URL: rawURL, Host: blocked}
		}
	}
	return nil
}
