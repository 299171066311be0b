package models

import "fmt"

const (
	DefaultMemory = 4194304 // KiB
	DiskExtension = ".qcow2"
)

// DiskSpec is one disk of a host. Path is empty until the disk is provisioned.
type DiskSpec struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Size      string `mapstructure:"size" yaml:"size"`
	CloneFrom string `mapstructure:"clone_from" yaml:"clone_from,omitempty"`
	Path      string `mapstructure:"-" yaml:"path,omitempty"`
}

func (d DiskSpec) IsClone() bool {
	return d.CloneFrom != ""
}

// DiskFileName returns the image file name of the disk at the given position.
func DiskFileName(hostname string, ordinal int) string {
	return fmt.Sprintf("%s-%03d%s", hostname, ordinal, DiskExtension)
}

type NicSpec struct {
	Name    string `mapstructure:"name" yaml:"name"`
	MAC     string `mapstructure:"mac" yaml:"mac"`
	Network string `mapstructure:"network" yaml:"network"`
}

// HostSpec is the fully resolved description of one libvirt domain.
type HostSpec struct {
	Hostname     string     `mapstructure:"-" yaml:"hostname"`
	UUID         string     `mapstructure:"uuid" yaml:"uuid"`
	Memory       int        `mapstructure:"memory" yaml:"memory"`
	Profile      string     `mapstructure:"profile" yaml:"profile,omitempty"`
	Variant      Variant    `mapstructure:"-" yaml:"variant"`
	Serial       string     `mapstructure:"serial" yaml:"serial,omitempty"`
	ProductName  string     `mapstructure:"product_name" yaml:"product_name,omitempty"`
	UseCloudInit bool       `mapstructure:"use_cloud_init" yaml:"use_cloud_init"`
	Disks        []DiskSpec `mapstructure:"disks" yaml:"disks"`
	Nics         []NicSpec  `mapstructure:"nics" yaml:"nics"`
}
