package fetch

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL gives equivalent document URLs one spelling, so a document listed twice is read once.
// Scheme and host are lowercased, default ports and the fragment are dropped and an empty path
// becomes "/". The query is kept since it can select the document. Unparseable input is returned as is.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
		}
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
