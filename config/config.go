package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	Name      = "virtualize"
	EnvPrefix = "VIRTUALIZE"

	SSHTransport   = "ssh"
	LocalTransport = "local"
)

var (
	ErrInvalidTransport = errors.New("invalid transport")
	ErrInvalidPort      = errors.New("invalid port")
)

type Target struct {
	User       string `mapstructure:"user"`
	Port       int    `mapstructure:"port"`
	KeyPath    string `mapstructure:"key_path"`
	KnownHosts string `mapstructure:"known_hosts"`
	Transport  string `mapstructure:"transport"`
}

type Libvirt struct {
	Socket string `mapstructure:"socket"`
}

type Infra struct {
	ReservedNetwork string `mapstructure:"reserved_network"`
	ImageDir        string `mapstructure:"image_dir"`
	CloudInitISO    string `mapstructure:"cloud_init_iso"`
	// CloudInitSource is a local file uploaded to CloudInitISO before deploying.
	CloudInitSource string `mapstructure:"cloud_init_source"`
	DefaultMemory   int    `mapstructure:"default_memory"`
}

type Bootstrap struct {
	Profile  string `mapstructure:"profile"`
	Image    string `mapstructure:"image"`
	DiskSize string `mapstructure:"disk_size"`
	DiskName string `mapstructure:"disk_name"`
	NicName  string `mapstructure:"nic_name"`
}

type Provisioning struct {
	BackingFormat    string `mapstructure:"backing_format"`
	IgnoreExitStatus bool   `mapstructure:"ignore_exit_status"`
}

type Config struct {
	Target       Target       `mapstructure:"target"`
	Libvirt      Libvirt      `mapstructure:"libvirt"`
	Infra        Infra        `mapstructure:"infra"`
	Bootstrap    Bootstrap    `mapstructure:"bootstrap"`
	Provisioning Provisioning `mapstructure:"provisioning"`
}

var defaults = map[string]any{
	"target.user":                     "root",
	"target.port":                     22,
	"target.key_path":                 "~/.ssh/id_rsa",
	"target.known_hosts":              "",
	"target.transport":                SSHTransport,
	"libvirt.socket":                  "/var/run/libvirt/libvirt-sock",
	"infra.reserved_network":          "sps_default",
	"infra.image_dir":                 "/var/lib/libvirt/images",
	"infra.cloud_init_iso":            "/var/lib/libvirt/images/cloud-init.iso",
	"infra.cloud_init_source":         "",
	"infra.default_memory":            4194304,
	"bootstrap.profile":               "install-server",
	"bootstrap.image":                 "/var/lib/libvirt/images/install-server_original.qcow2",
	"bootstrap.disk_size":             "30G",
	"bootstrap.disk_name":             "sda",
	"bootstrap.nic_name":              "eth0",
	"provisioning.backing_format":     "qcow2",
	"provisioning.ignore_exit_status": false,
}

// Load reads the configuration from path, or from the first virtualize.yaml
// found in the search paths when path is empty. Environment variables
// prefixed with VIRTUALIZE_ take precedence over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".config", Name))
		v.AddConfigPath(filepath.Join("/etc", Name))

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(ExpandHomeHookFunc())); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Target.Transport != SSHTransport && c.Target.Transport != LocalTransport {
		return fmt.Errorf("%w: %q", ErrInvalidTransport, c.Target.Transport)
	}

	if c.Target.Port <= 0 || c.Target.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Target.Port)
	}

	return nil
}

// ExpandHomeHookFunc replaces a leading "~/" in string values with the home
// directory of the current user.
func ExpandHomeHookFunc() mapstructure.DecodeHookFuncKind {
	return func(from reflect.Kind, to reflect.Kind, data any) (any, error) {
		if from != reflect.String || to != reflect.String {
			return data, nil
		}

		value := data.(string)
		if !strings.HasPrefix(value, "~/") {
			return data, nil
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		return filepath.Join(home, strings.TrimPrefix(value, "~/")), nil
	}
}
