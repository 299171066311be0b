package utils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_HostRange(t *testing.T) {
	testCases := []struct {
		network net.IPNet
		first   net.IP
		last    net.IP
	}{
		{
			network: net.IPNet{IP: net.ParseIP("192.168.1.0"), Mask: net.CIDRMask(29, 32)},
			first:   net.ParseIP("192.168.1.1").To4(),
			last:    net.ParseIP("192.168.1.6").To4(),
		},
		{
			network: net.IPNet{IP: net.ParseIP("192.168.100.17").To4(), Mask: net.CIDRMask(24, 32)},
			first:   net.ParseIP("192.168.100.1").To4(),
			last:    net.ParseIP("192.168.100.254").To4(),
		},
		{
			network: net.IPNet{IP: net.ParseIP("10.0.0.0").To4(), Mask: net.CIDRMask(8, 32)},
			first:   net.ParseIP("10.0.0.1").To4(),
			last:    net.ParseIP("10.255.255.254").To4(),
		},
	}

	for _, tc := range testCases {
		first, last := HostRange(tc.network)
		assert.Equal(t, tc.first, first)
		assert.Equal(t, tc.last, last)
	}
}

func Test_IsHostIP(t *testing.T) {
	network := net.IPNet{IP: net.ParseIP("192.168.100.0").To4(), Mask: net.CIDRMask(24, 32)}

	testCases := []struct {
		ip       string
		expected bool
	}{
		{ip: "192.168.100.1", expected: true},
		{ip: "192.168.100.254", expected: true},
		{ip: "192.168.100.0", expected: false},
		{ip: "192.168.100.255", expected: false},
		{ip: "192.168.101.10", expected: false},
		{ip: "fe80::1", expected: false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, IsHostIP(network, net.ParseIP(tc.ip)), tc.ip)
	}
}
