package validator

import (
	"errors"
	"fmt"
	"net"
	"path"
	"regexp"

	"github.com/google/uuid"
	"github.com/hogwarts-cloud/virtualize/internal/builder"
	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/hogwarts-cloud/virtualize/internal/network"
	"github.com/samber/lo"
)

const (
	MaxNameLength       = 63
	MaxBridgeNameLength = 15
)

var (
	ErrEmptyName            = errors.New("empty name")
	ErrInvalidName          = errors.New("invalid name")
	ErrNameTooBig           = errors.New("name too big")
	ErrMalformedDefinition  = errors.New("malformed definition")
	ErrInvalidUUID          = errors.New("invalid uuid")
	ErrInvalidMAC           = errors.New("invalid mac")
	ErrDuplicatedMAC        = errors.New("duplicated mac")
	ErrInvalidBridgeName    = errors.New("invalid bridge name")
	ErrNonPositiveMemory    = errors.New("non positive memory")
	ErrEmptyDiskName        = errors.New("empty disk name")
	ErrDuplicatedDiskName   = errors.New("duplicated disk name")
	ErrInvalidDiskSize      = errors.New("invalid disk size")
	ErrRelativeCloneFrom    = errors.New("clone_from is not an absolute path")
	ErrEmptyNicName         = errors.New("empty nic name")
	ErrDuplicatedBridgeName = errors.New("duplicated bridge name")
	ErrUnknownNetwork       = errors.New("unknown network")
)

var (
	nameRegexp     = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
	diskSizeRegexp = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKMGTPE]?$`)
)

type Config struct {
	ReservedNetwork  string
	BootstrapProfile string
}

type Validator struct {
	reservedNetwork string
	builder         *builder.Builder
}

// Validate checks the operator supplied values of a document. Required
// fields are left to the builder, and so are the values the builder
// discards for install-server hosts.
func (v *Validator) Validate(document models.Document) error {
	var macs, bridges []string
	networks := []string{v.reservedNetwork}

	if document.Networks != nil {
		for pair := document.Networks.Oldest(); pair != nil; pair = pair.Next() {
			spec, err := validateNetwork(pair.Key, pair.Value)
			if err != nil {
				return fmt.Errorf("failed to validate network %s: %w", pair.Key, err)
			}

			networks = append(networks, pair.Key)

			if spec.MAC != "" {
				macs = append(macs, normalizeMAC(spec.MAC))
			}
			if spec.BridgeName != "" {
				bridges = append(bridges, spec.BridgeName)
			}
		}
	}

	if document.Hosts != nil {
		for pair := document.Hosts.Oldest(); pair != nil; pair = pair.Next() {
			spec, err := v.validateHost(pair.Key, pair.Value)
			if err != nil {
				return fmt.Errorf("failed to validate host %s: %w", pair.Key, err)
			}

			for _, nic := range spec.Nics {
				if nic.Network != "" && !lo.Contains(networks, nic.Network) {
					return fmt.Errorf("failed to validate host %s: nic %s: %w: %q", pair.Key, nic.Name, ErrUnknownNetwork, nic.Network)
				}

				if nic.MAC != "" {
					macs = append(macs, normalizeMAC(nic.MAC))
				}
			}
		}
	}

	if duplicates := lo.FindDuplicates(macs); len(duplicates) > 0 {
		return fmt.Errorf("%w: %v", ErrDuplicatedMAC, duplicates)
	}

	if duplicates := lo.FindDuplicates(bridges); len(duplicates) > 0 {
		return fmt.Errorf("%w: %v", ErrDuplicatedBridgeName, duplicates)
	}

	return nil
}

func validateNetwork(name string, definition models.Definition) (*models.NetworkSpec, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	spec := &models.NetworkSpec{}
	if err := builder.Decode(definition, spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	if err := validateUUID(spec.UUID); err != nil {
		return nil, err
	}

	if err := validateMAC(spec.MAC); err != nil {
		return nil, err
	}

	if spec.BridgeName != "" && (len(spec.BridgeName) > MaxBridgeNameLength || !nameRegexp.MatchString(spec.BridgeName)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBridgeName, spec.BridgeName)
	}

	if spec.DHCP != nil {
		if err := network.ValidateLeases(*spec.DHCP); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func (v *Validator) validateHost(name string, definition models.Definition) (*models.HostSpec, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if v.builder.Variant(definition) == models.InstallServerVariant {
		definition = withoutDiscarded(definition)
	}

	spec := &models.HostSpec{}
	if err := builder.Decode(definition, spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	if err := validateUUID(spec.UUID); err != nil {
		return nil, err
	}

	if _, ok := definition["memory"]; ok && spec.Memory <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNonPositiveMemory, spec.Memory)
	}

	for _, disk := range spec.Disks {
		if disk.Name == "" {
			return nil, ErrEmptyDiskName
		}

		if !diskSizeRegexp.MatchString(disk.Size) {
			return nil, fmt.Errorf("%w: disk %s: %q", ErrInvalidDiskSize, disk.Name, disk.Size)
		}

		if disk.IsClone() && !path.IsAbs(disk.CloneFrom) {
			return nil, fmt.Errorf("%w: disk %s: %q", ErrRelativeCloneFrom, disk.Name, disk.CloneFrom)
		}
	}

	diskNames := lo.Map(spec.Disks, func(disk models.DiskSpec, _ int) string { return disk.Name })
	if duplicates := lo.FindDuplicates(diskNames); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrDuplicatedDiskName, duplicates)
	}

	for _, nic := range spec.Nics {
		if nic.Name == "" {
			return nil, ErrEmptyNicName
		}

		if err := validateMAC(nic.MAC); err != nil {
			return nil, fmt.Errorf("nic %s: %w", nic.Name, err)
		}
	}

	return spec, nil
}

// withoutDiscarded drops the disks of an install-server host, and its nics
// when the bootstrap nic replaces them.
func withoutDiscarded(definition models.Definition) models.Definition {
	kept := make(models.Definition, len(definition))
	for key, value := range definition {
		kept[key] = value
	}

	delete(kept, builder.DisksField)
	if kept[builder.NicsField] == nil {
		delete(kept, builder.NicsField)
	}

	return kept
}

func normalizeMAC(value string) string {
	mac, err := net.ParseMAC(value)
	if err != nil {
		return value
	}

	return mac.String()
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	if len(name) > MaxNameLength {
		return ErrNameTooBig
	}

	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

func validateUUID(value string) error {
	if value == "" {
		return nil
	}

	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidUUID, value)
	}

	return nil
}

func validateMAC(value string) error {
	if value == "" {
		return nil
	}

	if _, err := net.ParseMAC(value); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMAC, value)
	}

	return nil
}

func New(cfg Config) *Validator {
	return &Validator{
		reservedNetwork: cfg.ReservedNetwork,
		builder: builder.New(builder.Config{
			ReservedNetwork: cfg.ReservedNetwork,
			Bootstrap:       builder.Bootstrap{Profile: cfg.BootstrapProfile},
		}, nil),
	}
}
