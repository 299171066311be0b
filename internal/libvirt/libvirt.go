package libvirt

import (
	"context"
	"errors"
	"fmt"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket"
	"github.com/samber/lo"
)

const (
	// NeedResults asks libvirt to return the listed objects, not just a count.
	NeedResults = 1
	// ListAll lists active and inactive objects.
	ListAll = 0
)

var ErrHypervisor = errors.New("hypervisor call failed")

type Server interface {
	ConnectListAllNetworks(NeedResults int32, Flags golibvirt.ConnectListAllNetworksFlags) ([]golibvirt.Network, uint32, error)
	ConnectListAllDomains(NeedResults int32, Flags golibvirt.ConnectListAllDomainsFlags) ([]golibvirt.Domain, uint32, error)
	NetworkCreateXML(XML string) (golibvirt.Network, error)
	DomainCreateXML(XMLDesc string, Flags golibvirt.DomainCreateFlags) (golibvirt.Domain, error)
	NetworkLookupByName(Name string) (golibvirt.Network, error)
	DomainLookupByName(Name string) (golibvirt.Domain, error)
	NetworkDestroy(Net golibvirt.Network) error
	DomainDestroy(Dom golibvirt.Domain) error
}

type Config struct {
	Server Server
}

// Libvirt is the hypervisor connection used by the deployer. Networks and
// hosts are created transient, as with virsh net-create and virsh create.
type Libvirt struct {
	server Server
}

func (l *Libvirt) ListNetworks(ctx context.Context) ([]string, error) {
	networks, _, err := l.server.ConnectListAllNetworks(NeedResults, ListAll)
	if err != nil {
		return nil, wrap("failed to list networks", err)
	}

	return lo.Map(networks, func(network golibvirt.Network, _ int) string {
		return network.Name
	}), nil
}

func (l *Libvirt) ListHosts(ctx context.Context) ([]string, error) {
	domains, _, err := l.server.ConnectListAllDomains(NeedResults, ListAll)
	if err != nil {
		return nil, wrap("failed to list domains", err)
	}

	return lo.Map(domains, func(domain golibvirt.Domain, _ int) string {
		return domain.Name
	}), nil
}

func (l *Libvirt) CreateNetwork(ctx context.Context, definition string) error {
	if _, err := l.server.NetworkCreateXML(definition); err != nil {
		return wrap("failed to create network", err)
	}

	return nil
}

func (l *Libvirt) CreateHost(ctx context.Context, definition string) error {
	if _, err := l.server.DomainCreateXML(definition, golibvirt.DomainNone); err != nil {
		return wrap("failed to create domain", err)
	}

	return nil
}

func (l *Libvirt) DestroyNetwork(ctx context.Context, name string) error {
	network, err := l.server.NetworkLookupByName(name)
	if err != nil {
		return wrap("failed to lookup network", err)
	}

	if err := l.server.NetworkDestroy(network); err != nil {
		return wrap("failed to destroy network", err)
	}

	return nil
}

func (l *Libvirt) DestroyHost(ctx context.Context, name string) error {
	domain, err := l.server.DomainLookupByName(name)
	if err != nil {
		return wrap("failed to lookup domain", err)
	}

	if err := l.server.DomainDestroy(domain); err != nil {
		return wrap("failed to destroy domain", err)
	}

	return nil
}

func New(config Config) *Libvirt {
	return &Libvirt{server: config.Server}
}

// Connect opens a libvirt RPC connection to the system URI over dialer.
func Connect(dialer socket.Dialer) (*golibvirt.Libvirt, error) {
	conn := golibvirt.NewWithDialer(dialer)

	if err := conn.ConnectToURI(golibvirt.QEMUSystem); err != nil {
		return nil, wrap("failed to connect to libvirt", err)
	}

	return conn, nil
}

func wrap(message string, err error) error {
	return fmt.Errorf("%s: %w: %w", message, ErrHypervisor, err)
}
