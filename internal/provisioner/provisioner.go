package provisioner

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hogwarts-cloud/virtualize/internal/models"
	log "github.com/sirupsen/logrus"
)

const QemuImg = "qemu-img"

var ErrProvisioning = errors.New("provisioning command failed")

// ProvisioningError reports a disk command that ran but exited non-zero.
type ProvisioningError struct {
	Host       string
	Disk       string
	Argv       []string
	ExitStatus int
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("host %s disk %s: %s: %q exited with status %d",
		e.Host, e.Disk, ErrProvisioning, strings.Join(e.Argv, " "), e.ExitStatus)
}

func (e *ProvisioningError) Is(target error) bool {
	return target == ErrProvisioning
}

type Transport interface {
	Run(ctx context.Context, argv []string) (int, error)
}

type Config struct {
	Transport Transport
	ImageDir  string
	// BackingFormat is passed to qemu-img as -F when cloning. Empty omits it.
	BackingFormat    string
	IgnoreExitStatus bool
}

type Provisioner struct {
	transport        Transport
	imageDir         string
	backingFormat    string
	ignoreExitStatus bool
}

// Provision creates the image file of every disk of host, in declared order,
// and records the resulting path on each disk.
func (p *Provisioner) Provision(ctx context.Context, host *models.HostSpec) error {
	for i := range host.Disks {
		disk := &host.Disks[i]
		disk.Path = p.DiskPath(host.Hostname, i)

		for _, argv := range p.commands(*disk) {
			if err := p.run(ctx, host.Hostname, disk.Name, argv); err != nil {
				return fmt.Errorf("failed to provision disk %s: %w", disk.Name, err)
			}
		}
	}

	return nil
}

func (p *Provisioner) DiskPath(hostname string, ordinal int) string {
	return path.Join(p.imageDir, models.DiskFileName(hostname, ordinal))
}

func (p *Provisioner) commands(disk models.DiskSpec) [][]string {
	if !disk.IsClone() {
		return [][]string{
			{QemuImg, "create", "-q", "-f", "qcow2", disk.Path, disk.Size},
		}
	}

	create := []string{QemuImg, "create", "-f", "qcow2", "-b", disk.CloneFrom}
	if p.backingFormat != "" {
		create = append(create, "-F", p.backingFormat)
	}
	create = append(create, disk.Path, disk.Size)

	// The resize guards against backing files whose virtual size differs
	// from the declared one.
	resize := []string{QemuImg, "resize", "-q", disk.Path, disk.Size}

	return [][]string{create, resize}
}

func (p *Provisioner) run(ctx context.Context, host, disk string, argv []string) error {
	fields := log.Fields{"host": host, "disk": disk, "command": strings.Join(argv, " ")}
	log.WithFields(fields).Debug("running provisioning command")

	status, err := p.transport.Run(ctx, argv)
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}

	if status == 0 {
		return nil
	}

	if p.ignoreExitStatus {
		fields["status"] = status
		log.WithFields(fields).Warn("ignoring failed provisioning command")
		return nil
	}

	return &ProvisioningError{Host: host, Disk: disk, Argv: argv, ExitStatus: status}
}

func New(cfg Config) *Provisioner {
	return &Provisioner{
		transport:        cfg.Transport,
		imageDir:         cfg.ImageDir,
		backingFormat:    cfg.BackingFormat,
		ignoreExitStatus: cfg.IgnoreExitStatus,
	}
}
