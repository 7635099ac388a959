package client

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobesa/go-domain-util/domainutil"

	"github.com/autobrr/seedgc/pkg/config"
)

func NewClient(cfg config.ClientConfig) (Interface, error) {
	switch strings.ToLower(cfg.Type) {
	case config.ClientTransmission:
		return NewTransmission(cfg)
	case config.ClientQBittorrent:
		return NewQBittorrent(cfg)
	case config.ClientDeluge:
		return NewDeluge(cfg)
	default:
		return nil, fmt.Errorf("client not supported: %q", cfg.Type)
	}
}

// webURL joins a host and a port into a base url, keeping any scheme or port already present.
func webURL(address string, port int) (string, error) {
	addr := strings.TrimSpace(address)
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("parse url: missing host in %q", address)
	}

	if u.Port() == "" && port > 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

func parseTrackerDomain(trackerURL string) string {
	if trackerURL == "" {
		return ""
	}

	// skip disabled trackers
	if strings.Contains(trackerURL, "[DHT]") || strings.Contains(trackerURL, "[LSD]") ||
		strings.Contains(trackerURL, "[PeX]") {
		return ""
	}

	if !strings.Contains(trackerURL, "://") {
		trackerURL = "udp://" + trackerURL
	}

	u, err := url.Parse(trackerURL)
	if err != nil {
		return ""
	}

	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return host
	}

	if domain := domainutil.Domain(host); domain != "" {
		return domain
	}

	return host
}
