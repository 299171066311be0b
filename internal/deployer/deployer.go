package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/virtualize/internal/builder"
	"github.com/hogwarts-cloud/virtualize/internal/generator"
	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type Hypervisor interface {
	ListNetworks(ctx context.Context) ([]string, error)
	ListHosts(ctx context.Context) ([]string, error)
	CreateNetwork(ctx context.Context, definition string) error
	CreateHost(ctx context.Context, definition string) error
	DestroyNetwork(ctx context.Context, name string) error
	DestroyHost(ctx context.Context, name string) error
}

type Provisioner interface {
	Provision(ctx context.Context, host *models.HostSpec) error
}

type Renderer interface {
	RenderNetwork(network *models.NetworkSpec) (string, error)
	RenderHost(host *models.HostSpec) (string, error)
}

type Config struct {
	Hypervisor  Hypervisor
	Provisioner Provisioner
	Renderer    Renderer
	Generator   generator.Generator
	Builder     builder.Config
	Replace     bool
}

// Deployer converges a hypervisor towards a document. Resources already
// present are kept unless Replace is set, in which case they are destroyed
// and created again.
type Deployer struct {
	hypervisor  Hypervisor
	provisioner Provisioner
	renderer    Renderer
	generator   generator.Generator
	builder     builder.Config
	replace     bool
}

func (d *Deployer) Deploy(ctx context.Context, document models.Document) (models.Report, error) {
	report := models.Report{}
	b := builder.New(d.builder, d.generator)

	existingNetworks, err := d.hypervisor.ListNetworks(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list existing networks: %w", err)
	}

	for pair := d.networks(document).Oldest(); pair != nil; pair = pair.Next() {
		decision, err := d.deployNetwork(ctx, b, pair.Key, pair.Value, existingNetworks)
		report.Networks = append(report.Networks, decision)
		if err != nil {
			return report, fmt.Errorf("failed to deploy network %s: %w", pair.Key, err)
		}
	}

	existingHosts, err := d.hypervisor.ListHosts(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list existing hosts: %w", err)
	}

	for pair := hosts(document).Oldest(); pair != nil; pair = pair.Next() {
		decision, err := d.deployHost(ctx, b, pair.Key, pair.Value, existingHosts)
		report.Hosts = append(report.Hosts, decision)
		if err != nil {
			return report, fmt.Errorf("failed to deploy host %s: %w", pair.Key, err)
		}
	}

	return report, nil
}

// Plan classifies every desired resource without changing the target.
func (d *Deployer) Plan(ctx context.Context, document models.Document) (models.Report, error) {
	report := models.Report{}

	existingNetworks, err := d.hypervisor.ListNetworks(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list existing networks: %w", err)
	}

	for pair := d.networks(document).Oldest(); pair != nil; pair = pair.Next() {
		report.Networks = append(report.Networks, d.plan(models.NetworkKind, pair.Key, existingNetworks))
	}

	existingHosts, err := d.hypervisor.ListHosts(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list existing hosts: %w", err)
	}

	for pair := hosts(document).Oldest(); pair != nil; pair = pair.Next() {
		report.Hosts = append(report.Hosts, d.plan(models.HostKind, pair.Key, existingHosts))
	}

	return report, nil
}

func (d *Deployer) deployNetwork(
	ctx context.Context,
	b *builder.Builder,
	name string,
	definition models.Definition,
	existing []string,
) (models.Decision, error) {
	decision := d.classify(models.NetworkKind, name, existing)
	if decision.State == models.PresentKeepState {
		decision.Outcome = models.SkippedExistsOutcome
		logDecision(decision)
		return decision, nil
	}

	network, err := b.BuildNetwork(name, definition)
	if err != nil {
		return decision, fmt.Errorf("failed to build network: %w", err)
	}

	xml, err := d.renderer.RenderNetwork(network)
	if err != nil {
		return decision, fmt.Errorf("failed to render network: %w", err)
	}

	if decision.State == models.PresentReplaceState {
		if err := d.hypervisor.DestroyNetwork(ctx, name); err != nil {
			return decision, fmt.Errorf("failed to destroy network: %w", err)
		}
	}

	if err := d.hypervisor.CreateNetwork(ctx, xml); err != nil {
		return decision, fmt.Errorf("failed to create network: %w", err)
	}

	decision.Outcome = outcome(decision.State)
	logDecision(decision)

	return decision, nil
}

func (d *Deployer) deployHost(
	ctx context.Context,
	b *builder.Builder,
	name string,
	definition models.Definition,
	existing []string,
) (models.Decision, error) {
	decision := d.classify(models.HostKind, name, existing)
	if decision.State == models.PresentKeepState {
		decision.Outcome = models.SkippedExistsOutcome
		logDecision(decision)
		return decision, nil
	}

	host, err := b.BuildHost(name, definition)
	if errors.Is(err, builder.ErrMissingField) {
		decision.Outcome = models.FailedMissingFieldOutcome
		logDecision(decision)
		return decision, err
	}
	if err != nil {
		return decision, fmt.Errorf("failed to build host: %w", err)
	}

	if decision.State == models.PresentReplaceState {
		if err := d.hypervisor.DestroyHost(ctx, name); err != nil {
			return decision, fmt.Errorf("failed to destroy host: %w", err)
		}
	}

	if err := d.provisioner.Provision(ctx, host); err != nil {
		return decision, fmt.Errorf("failed to provision host: %w", err)
	}

	xml, err := d.renderer.RenderHost(host)
	if err != nil {
		return decision, fmt.Errorf("failed to render host: %w", err)
	}

	if err := d.hypervisor.CreateHost(ctx, xml); err != nil {
		return decision, fmt.Errorf("failed to create host: %w", err)
	}

	decision.Outcome = outcome(decision.State)
	logDecision(decision)

	return decision, nil
}

func (d *Deployer) plan(kind models.Kind, name string, existing []string) models.Decision {
	decision := d.classify(kind, name, existing)
	if decision.State == models.PresentKeepState {
		decision.Outcome = models.SkippedExistsOutcome
	}

	log.WithFields(log.Fields{
		"kind":  decision.Kind,
		"name":  decision.Name,
		"state": decision.State.String(),
	}).Info("planned resource")

	return decision
}

func (d *Deployer) classify(kind models.Kind, name string, existing []string) models.Decision {
	decision := models.Decision{Kind: kind, Name: name, State: models.MissingState}

	if lo.Contains(existing, name) {
		decision.State = models.PresentKeepState
		if d.replace {
			decision.State = models.PresentReplaceState
		}
	}

	return decision
}

// networks returns the declared networks followed by the reserved one. A
// declared network with the reserved name loses its definition.
func (d *Deployer) networks(document models.Document) *models.Definitions {
	networks := models.NewDefinitions()
	if document.Networks != nil {
		for pair := document.Networks.Oldest(); pair != nil; pair = pair.Next() {
			networks.Set(pair.Key, pair.Value)
		}
	}

	networks.Set(d.builder.ReservedNetwork, models.Definition{})

	return networks
}

func hosts(document models.Document) *models.Definitions {
	if document.Hosts == nil {
		return models.NewDefinitions()
	}

	return document.Hosts
}

func outcome(state models.State) models.Outcome {
	if state == models.PresentReplaceState {
		return models.RecreatedOutcome
	}

	return models.CreatedOutcome
}

func logDecision(decision models.Decision) {
	log.WithFields(log.Fields{
		"kind":    decision.Kind,
		"name":    decision.Name,
		"state":   decision.State.String(),
		"outcome": decision.Outcome.String(),
	}).Info("reconciled resource")
}

func New(cfg Config) *Deployer {
	return &Deployer{
		hypervisor:  cfg.Hypervisor,
		provisioner: cfg.Provisioner,
		renderer:    cfg.Renderer,
		generator:   cfg.Generator,
		builder:     cfg.Builder,
		replace:     cfg.Replace,
	}
}
