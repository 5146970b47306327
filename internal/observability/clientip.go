package observability

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies lists the peers whose X-Forwarded-For header is believed.
// A nil *TrustedProxies trusts nobody.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies accepts addresses ("10.0.0.5") and CIDR ranges
// ("10.0.0.0/8"). Blank entries are skipped.
func ParseTrustedProxies(values []string) (*TrustedProxies, error) {
	t := &TrustedProxies{}
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			t.prefixes = append(t.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		t.prefixes = append(t.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return t, nil
}

func (t *TrustedProxies) trusts(addr netip.Addr) bool {
	if t == nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range t.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the caller without its port. Forwarded
// hops are walked right to left only while the sender is trusted, so a
// client cannot choose its own address by sending the header itself.
func (t *TrustedProxies) ClientIP(r *http.Request) string {
	client := remoteHost(r.RemoteAddr)
	peer, err := netip.ParseAddr(client)
	if err != nil || !t.trusts(peer) {
		return orUnknown(client)
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			break
		}
		client = addr.Unmap().String()
		if !t.trusts(addr) {
			break
		}
	}
	return client
}

// ClientIP is the peer address of r. Forwarding headers are ignored.
func ClientIP(r *http.Request) string {
	var nobody *TrustedProxies
	return nobody.ClientIP(r)
}

func remoteHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
