package builder

import (
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/virtualize/internal/generator"
	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/mitchellh/mapstructure"
)

const (
	DisksField        = "disks"
	NicsField         = "nics"
	ProfileField      = "profile"
	UseCloudInitField = "use_cloud_init"
)

var ErrMissingField = errors.New("missing required field")

type MissingFieldError struct {
	Resource string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("host %s: %s %q", e.Resource, ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Bootstrap is the fixed configuration forced onto install-server hosts.
type Bootstrap struct {
	Profile  string
	Image    string
	DiskSize string
	DiskName string
	NicName  string
}

type Config struct {
	ReservedNetwork string
	DefaultMemory   int
	Bootstrap       Bootstrap
}

// Builder resolves sparse definitions into specs. One Builder serves one
// reconciliation pass: the install-server MAC is generated on first use and
// shared by every install-server host built afterwards.
type Builder struct {
	cfg          Config
	gen          generator.Generator
	bootstrapMAC string
}

func (b *Builder) BuildNetwork(name string, definition models.Definition) (*models.NetworkSpec, error) {
	network := &models.NetworkSpec{Name: name}

	if err := Decode(definition, network); err != nil {
		return nil, fmt.Errorf("failed to decode network %s: %w", name, err)
	}

	if network.UUID == "" {
		network.UUID = b.gen.UUID()
	}

	if network.MAC == "" {
		network.MAC = b.gen.MAC()
	}

	if network.BridgeName == "" {
		network.BridgeName = b.gen.BridgeName()
	}

	return network, nil
}

func (b *Builder) BuildHost(name string, definition models.Definition) (*models.HostSpec, error) {
	definition = clone(definition)

	variant := b.Variant(definition)
	if variant == models.InstallServerVariant {
		b.applyBootstrap(definition)
	}

	for _, field := range []string{DisksField, NicsField} {
		if definition[field] == nil {
			return nil, &MissingFieldError{Resource: name, Field: field}
		}
	}

	nics := definition[NicsField]
	delete(definition, NicsField)

	host := &models.HostSpec{
		Hostname: name,
		Memory:   b.cfg.DefaultMemory,
		Variant:  variant,
	}

	if err := Decode(definition, host); err != nil {
		return nil, fmt.Errorf("failed to decode host %s: %w", name, err)
	}

	if host.UUID == "" {
		host.UUID = b.gen.UUID()
	}

	resolvedNics, err := b.buildNics(nics)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nics of host %s: %w", name, err)
	}
	host.Nics = resolvedNics

	return host, nil
}

// Variant reports which resolution rules apply to a host definition.
func (b *Builder) Variant(definition models.Definition) models.Variant {
	profile, _ := definition[ProfileField].(string)
	if profile != "" && profile == b.cfg.Bootstrap.Profile {
		return models.InstallServerVariant
	}

	return models.StandardVariant
}

// applyBootstrap discards operator disks and, when none are given, nics. A
// null nics value counts as none.
func (b *Builder) applyBootstrap(definition models.Definition) {
	definition[UseCloudInitField] = true
	definition[DisksField] = []any{
		map[string]any{
			"name":       b.cfg.Bootstrap.DiskName,
			"size":       b.cfg.Bootstrap.DiskSize,
			"clone_from": b.cfg.Bootstrap.Image,
		},
	}

	if definition[NicsField] != nil {
		return
	}

	if b.bootstrapMAC == "" {
		b.bootstrapMAC = b.gen.MAC()
	}

	definition[NicsField] = []any{
		map[string]any{
			"name": b.cfg.Bootstrap.NicName,
			"mac":  b.bootstrapMAC,
		},
	}
}

func (b *Builder) buildNics(input any) ([]models.NicSpec, error) {
	var items []any
	if err := Decode(input, &items); err != nil {
		return nil, err
	}

	nics := make([]models.NicSpec, 0, len(items))
	for _, item := range items {
		nic := models.NicSpec{Network: b.cfg.ReservedNetwork}

		if err := Decode(item, &nic); err != nil {
			return nil, err
		}

		if nic.MAC == "" {
			nic.MAC = b.gen.MAC()
		}

		nics = append(nics, nic)
	}

	return nics, nil
}

// Decode merges the recognised keys of input over output. Unknown keys are
// ignored.
func Decode(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	return decoder.Decode(input)
}

func clone(definition models.Definition) models.Definition {
	cloned := make(models.Definition, len(definition))
	for key, value := range definition {
		cloned[key] = value
	}

	return cloned
}

func New(cfg Config, gen generator.Generator) *Builder {
	return &Builder{
		cfg: cfg,
		gen: gen,
	}
}
