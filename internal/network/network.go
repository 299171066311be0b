package network

import (
	"errors"
	"fmt"
	"net"

	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/hogwarts-cloud/virtualize/pkg/utils"
)

var (
	ErrInvalidAddress     = errors.New("invalid dhcp address")
	ErrInvalidNetmask     = errors.New("invalid dhcp netmask")
	ErrInvalidLeaseIP     = errors.New("invalid lease ip")
	ErrInvalidLeaseMAC    = errors.New("invalid lease mac")
	ErrLeaseOutsideSubnet = errors.New("lease ip outside of subnet")
	ErrLeaseOnAddress     = errors.New("lease ip is the network address")
	ErrLeaseNotHostIP     = errors.New("lease ip is not a host address")
	ErrDuplicatedLeaseIP  = errors.New("duplicated lease ip")
	ErrDuplicatedLeaseMAC = errors.New("duplicated lease mac")
)

// Subnet returns the IPv4 network served by a DHCP block.
func Subnet(dhcp models.DHCP) (net.IPNet, error) {
	address := net.ParseIP(dhcp.Address).To4()
	if address == nil {
		return net.IPNet{}, fmt.Errorf("%w: %q", ErrInvalidAddress, dhcp.Address)
	}

	netmask := net.ParseIP(dhcp.Netmask).To4()
	if netmask == nil {
		return net.IPNet{}, fmt.Errorf("%w: %q", ErrInvalidNetmask, dhcp.Netmask)
	}

	mask := net.IPMask(netmask)
	if ones, bits := mask.Size(); ones == 0 && bits == 0 {
		return net.IPNet{}, fmt.Errorf("%w: %q is not contiguous", ErrInvalidNetmask, dhcp.Netmask)
	}

	return net.IPNet{IP: address.Mask(mask), Mask: mask}, nil
}

// ValidateLeases checks that every static lease fits the subnet and that no
// IP or MAC is reserved twice.
func ValidateLeases(dhcp models.DHCP) error {
	subnet, err := Subnet(dhcp)
	if err != nil {
		return err
	}

	address := net.ParseIP(dhcp.Address)
	var ips []net.IP
	var macs []net.HardwareAddr

	for _, lease := range dhcp.Hosts {
		ip := net.ParseIP(lease.IP)
		if ip == nil {
			return fmt.Errorf("%w: %q", ErrInvalidLeaseIP, lease.IP)
		}

		if !subnet.Contains(ip) {
			return fmt.Errorf("%w: %s not in %s", ErrLeaseOutsideSubnet, ip, subnet.String())
		}

		if !utils.IsHostIP(subnet, ip) {
			return fmt.Errorf("%w: %s", ErrLeaseNotHostIP, ip)
		}

		if ip.Equal(address) {
			return fmt.Errorf("%w: %s", ErrLeaseOnAddress, ip)
		}

		mac, err := net.ParseMAC(lease.MAC)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLeaseMAC, lease.MAC)
		}

		for _, occupiedIP := range ips {
			if occupiedIP.Equal(ip) {
				return fmt.Errorf("%w: %s", ErrDuplicatedLeaseIP, ip)
			}
		}

		for _, occupiedMAC := range macs {
			if occupiedMAC.String() == mac.String() {
				return fmt.Errorf("%w: %s", ErrDuplicatedLeaseMAC, mac)
			}
		}

		ips = append(ips, ip)
		macs = append(macs, mac)
	}

	return nil
}
