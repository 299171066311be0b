package models

// Lease is a static DHCP reservation.
type Lease struct {
	IP   string `mapstructure:"ip" yaml:"ip"`
	MAC  string `mapstructure:"mac" yaml:"mac"`
	Name string `mapstructure:"name" yaml:"name"`
}

type DHCP struct {
	Address string  `mapstructure:"address" yaml:"address"`
	Netmask string  `mapstructure:"netmask" yaml:"netmask"`
	Hosts   []Lease `mapstructure:"hosts" yaml:"hosts"`
}

// NetworkSpec is the fully resolved description of one libvirt network.
type NetworkSpec struct {
	Name       string   `mapstructure:"-" yaml:"name"`
	UUID       string   `mapstructure:"uuid" yaml:"uuid"`
	MAC        string   `mapstructure:"mac" yaml:"mac"`
	BridgeName string   `mapstructure:"bridge_name" yaml:"bridge_name"`
	IPs        []string `mapstructure:"ips" yaml:"ips,omitempty"`
	DHCP       *DHCP    `mapstructure:"dhcp" yaml:"dhcp,omitempty"`
}
