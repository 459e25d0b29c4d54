package pkg

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// docker bridge networks live in 172.16.0.0/12 and their gateway ends in .0.1
var dockerBridges = netip.MustParsePrefix("172.16.0.0/12")

// IPIsLocal reports whether addr ("ip" or "ip:port") is the loopback address
// or a docker bridge gateway, i.e. a request made from the same host.
func IPIsLocal(addr string) bool {
	ip, err := parseAddr(addr)
	if err != nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	if !ip.Is4() {
		return false
	}
	octets := ip.As4()
	return dockerBridges.Contains(ip) && octets[2] == 0 && octets[3] == 1
}

// ReadUserIP returns the client IP, preferring proxy headers over the remote address.
// Local and docker bridge addresses are all reported as "localhost".
func ReadUserIP(r *http.Request) (string, error) {
	addr := r.Header.Get("X-Real-Ip")
	if addr == "" {
		addr = strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0])
	}
	if addr == "" {
		addr = r.RemoteAddr
	}

	ip, err := parseAddr(addr)
	if err != nil {
		return "", fmt.Errorf("ip addr %s is invalid", addr)
	}
	if IPIsLocal(addr) {
		return "localhost", nil
	}
	return ip.String(), nil
}

func parseAddr(addr string) (netip.Addr, error) {
	if addrPort, err := netip.ParseAddrPort(addr); err == nil {
		return addrPort.Addr().Unmap(), nil
	}
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return netip.Addr{}, err
	}
	return ip.Unmap(), nil
}
