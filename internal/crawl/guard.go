package crawl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// errBlocked marks a destination the crawler refuses to contact.
var errBlocked = errors.New("destination not allowed")

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("100.64.0.0/10"),  // CGNAT
	netip.MustParsePrefix("169.254.0.0/16"), // link-local, cloud metadata
	netip.MustParsePrefix("fc00::/7"),       // IPv6 ULA
}

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsUnspecified() {
		return true
	}
	for _, prefix := range privatePrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

type hostResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// destinationGuard holds the crawler's address policy. Page URLs are checked
// without DNS; host names are resolved exactly once, at dial time, and the
// checked address is the one dialed.
type destinationGuard struct {
	allowPrivate bool
	resolver     hostResolver
}

func newDestinationGuard(allowPrivate bool) *destinationGuard {
	return &destinationGuard{allowPrivate: allowPrivate, resolver: net.DefaultResolver}
}

// checkURL rejects non-http(s) URLs, URLs without a host and, unless private
// destinations are allowed, private IP literals.
func (g *destinationGuard) checkURL(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", errBlocked, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", errBlocked)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !g.allowPrivate && isPrivateAddr(addr) {
		return fmt.Errorf("%w: %s is a private address", errBlocked, host)
	}
	return nil
}

func (g *destinationGuard) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	var addrs []netip.Addr
	if addr, err := netip.ParseAddr(host); err == nil {
		addrs = []netip.Addr{addr}
	} else {
		addrs, err = g.resolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup %s: %w", host, err)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("dns lookup %s: no addresses", host)
	}
	if g.allowPrivate {
		return addrs, nil
	}
	for _, addr := range addrs {
		if isPrivateAddr(addr) {
			return nil, fmt.Errorf("%w: %s resolves to private address %s", errBlocked, host, addr)
		}
	}
	return addrs, nil
}

func (g *destinationGuard) dialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("dial %q: %w", addr, err)
		}
		addrs, err := g.resolve(ctx, host)
		if err != nil {
			return nil, err
		}
		return dialer.DialContext(ctx, network, net.JoinHostPort(addrs[0].String(), port))
	}
}

// transport returns the crawler's default transport. Proxies are not used so
// the guard sees the real destination.
func (g *destinationGuard) transport() *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		DialContext:         g.dialContext(dialer),
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
