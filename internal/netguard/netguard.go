// Package netguard keeps outbound requests made on behalf of API clients
// away from loopback, private, link-local and unspecified addresses.
package netguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// ErrBlocked is returned for a destination outside the public internet.
var ErrBlocked = errors.New("destination address not allowed")

// Shared address space (RFC 6598), not covered by netip.Addr.IsPrivate.
var sharedSpace = netip.MustParsePrefix("100.64.0.0/10")

// Allowed reports whether addr may be contacted.
func Allowed(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	switch {
	case addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified(),
		sharedSpace.Contains(addr):
		return false
	}
	return true
}

// Control is a net.Dialer Control hook. It runs on the resolved address of
// every connection, so redirects and DNS answers are checked too.
func Control(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlocked, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !Allowed(addr) {
		return fmt.Errorf("%w: %s", ErrBlocked, host)
	}
	return nil
}

// LiteralHostAllowed rejects a URL host that is localhost or an IP literal
// outside the public internet. Other names pass; they are checked once resolved.
func LiteralHostAllowed(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return Allowed(addr)
	}
	return true
}

// CheckURL resolves the host of rawURL and fails when any of its addresses
// is not allowed. It guards clients that dial on their own, like a browser.
func CheckURL(ctx context.Context, rawURL string, resolver *net.Resolver) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Hostname()
	if !LiteralHostAllowed(host) {
		return fmt.Errorf("%w: %s", ErrBlocked, host)
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return nil
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		if !Allowed(addr) {
			return fmt.Errorf("%w: %s resolves to %s", ErrBlocked, host, addr)
		}
	}
	return nil
}
