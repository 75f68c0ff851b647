// Package tls issues a locally trusted certificate so the bridge can serve
// wss:// to pages loaded over HTTPS.
package tls

import (
	"net"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// GetLANIPs returns all local IPv4 addresses of interfaces that are up,
// loopback excluded.
func GetLANIPs() ([]string, error) {
	interfaces, err := psnet.Interfaces()
	if err != nil {
		return nil, err
	}
	return lanIPs(interfaces), nil
}

func lanIPs(interfaces psnet.InterfaceStatList) []string {
	var ips []string
	for _, iface := range interfaces {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}

		for _, addr := range iface.Addrs {
			// gopsutil reports addresses in CIDR notation.
			ip, _, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				ip = net.ParseIP(addr.Addr)
			}
			if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
				ips = append(ips, ip.String())
			}
		}
	}
	return ips
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}

// GetAllHosts returns localhost + LAN IPs for certificate generation.
func GetAllHosts() ([]string, error) {
	hosts := []string{"localhost", "127.0.0.1"}

	lanIPs, err := GetLANIPs()
	if err != nil {
		return hosts, err
	}

	hosts = append(hosts, lanIPs...)
	return hosts, nil
}
