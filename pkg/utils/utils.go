package utils

import (
	"bytes"
	"net"
)

// HostRange returns the first and the last usable address of an IPv4
// network, leaving out the network and the broadcast addresses.
func HostRange(network net.IPNet) (net.IP, net.IP) {
	first := dupIP(network.IP.To4().Mask(network.Mask))
	last := dupIP(first)

	for i := range last {
		last[i] |= ^network.Mask[len(network.Mask)-len(last)+i]
	}

	incIP(first)
	decIP(last)

	return first, last
}

// IsHostIP reports whether ip is a usable address of network.
func IsHostIP(network net.IPNet, ip net.IP) bool {
	ip = ip.To4()
	if ip == nil || !network.Contains(ip) {
		return false
	}

	first, last := HostRange(network)

	return bytes.Compare(ip, first) >= 0 && bytes.Compare(ip, last) <= 0
}

func incIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func decIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]--
		if ip[j] < 255 {
			break
		}
	}
}

func dupIP(ip net.IP) net.IP {
	dup := make(net.IP, len(ip))
	copy(dup, ip)
	return dup
}
