// Package fetch - guard.go keeps user-supplied URLs away from internal addresses.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a URL resolves to a loopback, private,
// link-local or unspecified address.
var ErrBlockedAddress = errors.New("address not allowed")

// IsPublicAddr reports whether addr may be fetched on behalf of a user.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}
	// 100.64.0.0/10 carrier-grade NAT is not covered by IsPrivate.
	if addr.Is4() && addr.As4()[0] == 100 && addr.As4()[1]&0xc0 == 64 {
		return false
	}
	return true
}

// dialControl rejects connections to non-public addresses. It runs after DNS
// resolution, so it also covers redirects and hostnames that resolve inward.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !IsPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, addr)
	}
	return nil
}

// NewClient returns an HTTP client that refuses to connect to internal addresses.
func NewClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: transport}
}

// CheckURL resolves the URL's host and fails with ErrBlockedAddress when any
// resolved address is not public. Used where the dial itself cannot be guarded,
// such as the headless browser.
func CheckURL(ctx context.Context, urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil || u.Hostname() == "" {
		return &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	host := u.Hostname()
	if addr, err := netip.ParseAddr(host); err == nil {
		if !IsPublicAddr(addr) {
			return &Error{URL: urlStr, Message: "blocked host", Cause: fmt.Errorf("%w: %s", ErrBlockedAddress, addr)}
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return &Error{URL: urlStr, Message: "host lookup failed", Cause: err}
	}
	for _, addr := range addrs {
		if !IsPublicAddr(addr) {
			return &Error{URL: urlStr, Message: "blocked host", Cause: fmt.Errorf("%w: %s", ErrBlockedAddress, addr)}
		}
	}
	return nil
}
