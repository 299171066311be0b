package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/hogwarts-cloud/virtualize/config"
	"github.com/hogwarts-cloud/virtualize/internal/builder"
	"github.com/hogwarts-cloud/virtualize/internal/deployer"
	"github.com/hogwarts-cloud/virtualize/internal/executor"
	"github.com/hogwarts-cloud/virtualize/internal/generator"
	"github.com/hogwarts-cloud/virtualize/internal/libvirt"
	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/hogwarts-cloud/virtualize/internal/parser"
	"github.com/hogwarts-cloud/virtualize/internal/provisioner"
	"github.com/hogwarts-cloud/virtualize/internal/renderer"
	"github.com/hogwarts-cloud/virtualize/internal/validator"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"
)

var (
	configPath string
	logLevel   string
	replace    bool

	cfg config.Config
)

var localHosts = []string{"localhost", "127.0.0.1", "::1"}

var root = &cobra.Command{
	Use:   "virtualize",
	Short: "Deploy a virtual infrastructure on a libvirt hypervisor",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level: %w", err)
		}

		log.SetOutput(os.Stderr)
		log.SetLevel(level)

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

var validate = &cobra.Command{
	Use:   "validate <input-file>",
	Short: "Validate an infrastructure document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if _, err := load(args[0]); err != nil {
			return err
		}

		log.WithField("document", args[0]).Info("document is valid")

		return nil
	},
}

var plan = &cobra.Command{
	Use:   "plan <input-file> <target-host>",
	Short: "Show what deploy would do without changing the target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		document, err := load(args[0])
		if err != nil {
			return err
		}

		target, err := connect(args[1])
		if err != nil {
			return err
		}
		defer target.Close()

		report, err := newDeployer(target).Plan(cmd.Context(), *document)
		if err != nil {
			return fmt.Errorf("failed to plan document: %w", err)
		}

		return printReport(cmd, report)
	},
}

var deploy = &cobra.Command{
	Use:   "deploy <input-file> <target-host>",
	Short: "Create the networks and hosts of a document on the target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		document, err := load(args[0])
		if err != nil {
			return err
		}

		target, err := connect(args[1])
		if err != nil {
			return err
		}
		defer target.Close()

		if err := upload(cmd.Context(), target); err != nil {
			return err
		}

		report, deployErr := newDeployer(target).Deploy(cmd.Context(), *document)

		if err := printReport(cmd, report); err != nil {
			return err
		}

		if deployErr != nil {
			return fmt.Errorf("failed to deploy document: %w", deployErr)
		}

		return nil
	},
}

func load(path string) (*models.Document, error) {
	document, err := parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	v := validator.New(validator.Config{
		ReservedNetwork:  cfg.Infra.ReservedNetwork,
		BootstrapProfile: cfg.Bootstrap.Profile,
	})

	if err := v.Validate(*document); err != nil {
		return nil, fmt.Errorf("failed to validate document: %w", err)
	}

	return document, nil
}

// session holds the connections to the hypervisor host for one run.
type session struct {
	executor executor.Executor
	libvirt  *golibvirt.Libvirt
	client   *ssh.Client
}

func (s *session) Close() error {
	var errs []error

	if err := s.libvirt.Disconnect(); err != nil {
		errs = append(errs, fmt.Errorf("failed to disconnect from libvirt: %w", err))
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close ssh connection: %w", err))
		}
	}

	return errors.Join(errs...)
}

func connect(host string) (*session, error) {
	fields := log.Fields{"host": host, "socket": cfg.Libvirt.Socket}

	if cfg.Target.Transport == config.LocalTransport || lo.Contains(localHosts, host) {
		log.WithFields(fields).Debug("connecting to local hypervisor")

		conn, err := libvirt.Connect(libvirt.NewLocalDialer(cfg.Libvirt.Socket))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to hypervisor: %w", err)
		}

		return &session{executor: executor.NewLocal(), libvirt: conn}, nil
	}

	log.WithFields(fields).Debug("connecting to remote hypervisor")

	client, err := executor.Dial(executor.Config{
		Host:       host,
		Port:       cfg.Target.Port,
		User:       cfg.Target.User,
		KeyPath:    cfg.Target.KeyPath,
		KnownHosts: cfg.Target.KnownHosts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	conn, err := libvirt.Connect(libvirt.NewTunnelDialer(client, cfg.Libvirt.Socket))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to hypervisor: %w", err)
	}

	return &session{executor: executor.NewRemote(client), libvirt: conn, client: client}, nil
}

func upload(ctx context.Context, target *session) error {
	if cfg.Infra.CloudInitSource == "" {
		return nil
	}

	log.WithFields(log.Fields{
		"source":      cfg.Infra.CloudInitSource,
		"destination": cfg.Infra.CloudInitISO,
	}).Info("uploading cloud-init image")

	if err := target.executor.Copy(ctx, cfg.Infra.CloudInitSource, cfg.Infra.CloudInitISO); err != nil {
		return fmt.Errorf("failed to upload cloud-init image: %w", err)
	}

	return nil
}

func newDeployer(target *session) *deployer.Deployer {
	return deployer.New(deployer.Config{
		Hypervisor: libvirt.New(libvirt.Config{Server: target.libvirt}),
		Provisioner: provisioner.New(provisioner.Config{
			Transport:        target.executor,
			ImageDir:         cfg.Infra.ImageDir,
			BackingFormat:    cfg.Provisioning.BackingFormat,
			IgnoreExitStatus: cfg.Provisioning.IgnoreExitStatus,
		}),
		Renderer:  renderer.New(renderer.Config{CloudInitISO: cfg.Infra.CloudInitISO}),
		Generator: generator.New(),
		Builder: builder.Config{
			ReservedNetwork: cfg.Infra.ReservedNetwork,
			DefaultMemory:   cfg.Infra.DefaultMemory,
			Bootstrap: builder.Bootstrap{
				Profile:  cfg.Bootstrap.Profile,
				Image:    cfg.Bootstrap.Image,
				DiskSize: cfg.Bootstrap.DiskSize,
				DiskName: cfg.Bootstrap.DiskName,
				NicName:  cfg.Bootstrap.NicName,
			},
		},
		Replace: replace,
	})
}

func printReport(cmd *cobra.Command, report models.Report) error {
	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)

	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return encoder.Close()
}

func init() {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level")
	deploy.Flags().BoolVar(&replace, "replace", false, "Destroy and recreate resources that already exist")
	plan.Flags().BoolVar(&replace, "replace", false, "Plan the replacement of resources that already exist")
	root.AddCommand(validate, plan, deploy)
}

func main() {
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
