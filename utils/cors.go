package utils

import (
	"net"
	"net/url"
	"strings"
)

// TrustedOrigin decides whether a browser Origin may call the API with
// credentials. Critiverse is a self-hosted app: the web client is served
// from the same box or the same LAN, so local names and private addresses
// are trusted and anything on the public internet is not.
func TrustedOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	host := parsed.Hostname()

	if host == "localhost" {
		return true
	}
	// mDNS names (critiverse.local) and bare LAN hostnames.
	if strings.HasSuffix(host, ".local") || !strings.Contains(host, ".") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
