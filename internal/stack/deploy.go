package stack

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ersin/stackd/internal/config"
	"github.com/ersin/stackd/internal/core/domain"
	"github.com/ersin/stackd/internal/core/ports"
)

// Deployer brings whole stacks up and down through a container runtime.
// It implements ports.StackService.
type Deployer struct {
	runtime       ports.ContainerRuntime
	builder       ports.BuilderService
	log           zerolog.Logger
	db            config.DatabaseConfig
	secretKey     string
	entrypointBin string
}

func NewDeployer(rt ports.ContainerRuntime, b ports.BuilderService, log zerolog.Logger,
	db config.DatabaseConfig, secretKey, entrypointBin string) *Deployer {
	return &Deployer{
		runtime:       rt,
		builder:       b,
		log:           log,
		db:            db,
		secretKey:     secretKey,
		entrypointBin: entrypointBin,
	}
}

// Deploy builds the application image from the requested source and brings up
// the canonical topology around it.
func (d *Deployer) Deploy(ctx context.Context, req domain.DeployRequest) (domain.StackInfo, error) {
	if req.Name == "" {
		return domain.StackInfo{}, fmt.Errorf("stack name is required")
	}

	ref, err := d.builder.BuildImage(ctx, domain.BuildRequest{
		SourceDir:     req.SourceDir,
		RepoURL:       req.RepoURL,
		ImageName:     req.Name + "-app:latest",
		EntrypointBin: d.entrypointBin,
	})
	if err != nil {
		return domain.StackInfo{}, fmt.Errorf("build application image: %w", err)
	}

	def := DefaultDefinition(req.Name, ref.Name, d.db, d.secretKey)
	deployID := uuid.NewString()
	if err := d.Up(ctx, def, deployID); err != nil {
		return domain.StackInfo{}, err
	}

	services, err := d.runtime.ListServices(ctx, req.Name)
	if err != nil {
		return domain.StackInfo{}, fmt.Errorf("list stack services: %w", err)
	}
	return domain.StackInfo{
		Name:     req.Name,
		DeployID: deployID,
		Image:    ref.Name,
		Services: services,
	}, nil
}

// Up validates the definition, ensures volumes and networks, then creates and
// starts every service in dependency order. "Started" means the process
// exists, not that it is ready; readiness is the startup sequencer's problem.
func (d *Deployer) Up(ctx context.Context, def *Definition, deployID string) error {
	if err := def.Validate(); err != nil {
		return err
	}
	order, err := def.StartOrder()
	if err != nil {
		return err
	}

	for _, vol := range sortedKeys(def.Volumes) {
		if err := d.runtime.EnsureVolume(ctx, scoped(def.Name, vol)); err != nil {
			return fmt.Errorf("ensure volume %s: %w", vol, err)
		}
	}
	for _, net := range sortedKeys(def.Networks) {
		if err := d.runtime.EnsureNetwork(ctx, scoped(def.Name, net), def.Networks[net].Internal); err != nil {
			return fmt.Errorf("ensure network %s: %w", net, err)
		}
	}

	for _, name := range order {
		spec := materialize(def, name, deployID)
		d.log.Info().Str("stack", def.Name).Str("service", name).Msg("starting service")
		id, err := d.runtime.CreateService(ctx, spec)
		if err != nil {
			return fmt.Errorf("create service %s: %w", name, err)
		}
		if err := d.runtime.StartService(ctx, id); err != nil {
			return fmt.Errorf("start service %s: %w", name, err)
		}
	}
	return nil
}

// Teardown stops and removes the stack's services in reverse start order and
// removes its networks. Volumes are deliberately left in place: their content
// lifecycle is independent of any container's.
func (d *Deployer) Teardown(ctx context.Context, name string) error {
	services, err := d.runtime.ListServices(ctx, name)
	if err != nil {
		return fmt.Errorf("list stack services: %w", err)
	}
	if len(services) == 0 {
		return fmt.Errorf("stack %s not found", name)
	}
	byName := make(map[string]domain.Service, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
	}

	// The topology is fixed, so the canonical definition gives the order even
	// for stacks deployed by an earlier control-plane process.
	def := DefaultDefinition(name, "", d.db, "")
	order, err := def.StartOrder()
	if err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		svc, ok := byName[order[i]]
		if !ok {
			continue
		}
		d.log.Info().Str("stack", name).Str("service", svc.Name).Msg("stopping service")
		if err := d.runtime.StopService(ctx, svc.ID); err != nil {
			return fmt.Errorf("stop service %s: %w", svc.Name, err)
		}
		if err := d.runtime.RemoveService(ctx, svc.ID); err != nil {
			return fmt.Errorf("remove service %s: %w", svc.Name, err)
		}
	}

	for _, net := range sortedKeys(def.Networks) {
		if err := d.runtime.RemoveNetwork(ctx, scoped(name, net)); err != nil {
			return fmt.Errorf("remove network %s: %w", net, err)
		}
	}
	return nil
}

// List groups all known service containers by stack.
func (d *Deployer) List(ctx context.Context) ([]domain.StackInfo, error) {
	services, err := d.runtime.ListServices(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	grouped := make(map[string]*domain.StackInfo)
	for _, svc := range services {
		info, ok := grouped[svc.Stack]
		if !ok {
			info = &domain.StackInfo{Name: svc.Stack, DeployID: svc.DeployID}
			grouped[svc.Stack] = info
		}
		info.Services = append(info.Services, svc)
	}

	out := make([]domain.StackInfo, 0, len(grouped))
	for _, name := range sortedKeys(grouped) {
		out = append(out, *grouped[name])
	}
	return out, nil
}

func (d *Deployer) Logs(ctx context.Context, stack, service string) (io.ReadCloser, error) {
	svc, err := d.find(ctx, stack, service)
	if err != nil {
		return nil, err
	}
	return d.runtime.ServiceLogs(ctx, svc.ID)
}

// Manifest renders the stack's canonical topology as a compose manifest. The
// secret is omitted: manifests are for operators' eyes and files, not for
// secret transport.
func (d *Deployer) Manifest(ctx context.Context, name string) ([]byte, error) {
	if _, err := d.find(ctx, name, ServiceApp); err != nil {
		return nil, err
	}
	def := DefaultDefinition(name, name+"-app:latest", d.db, "")
	return def.RenderCompose()
}

// Edge returns the stack's reverse proxy, the only service external traffic
// may reach.
func (d *Deployer) Edge(ctx context.Context, stack string) (domain.Service, error) {
	svc, err := d.find(ctx, stack, ServiceProxy)
	if err != nil {
		return domain.Service{}, err
	}
	if svc.State != "running" {
		return domain.Service{}, fmt.Errorf("stack %s edge is not running", stack)
	}
	return svc, nil
}

func (d *Deployer) find(ctx context.Context, stack, service string) (domain.Service, error) {
	services, err := d.runtime.ListServices(ctx, stack)
	if err != nil {
		return domain.Service{}, fmt.Errorf("list stack services: %w", err)
	}
	for _, svc := range services {
		if svc.Name == service {
			return svc, nil
		}
	}
	return domain.Service{}, fmt.Errorf("service %s not found in stack %s", service, stack)
}

// materialize turns one declared service into a runtime spec, scoping volume
// and network names to the stack.
func materialize(def *Definition, name, deployID string) domain.ServiceSpec {
	svc := def.Services[name]

	env := make([]string, 0, len(svc.Env))
	for _, k := range sortedKeys(svc.Env) {
		env = append(env, k+"="+svc.Env[k])
	}

	mounts := make([]domain.Mount, 0, len(svc.Volumes))
	for _, m := range svc.Volumes {
		mounts = append(mounts, domain.Mount{
			Volume:   scoped(def.Name, m.Name),
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	networks := make(map[string][]string, len(svc.Networks))
	for _, net := range svc.Networks {
		// The bare service name is the alias dependents dial, e.g. SQL_HOST=db.
		networks[scoped(def.Name, net)] = []string{name}
	}

	return domain.ServiceSpec{
		Stack:         def.Name,
		Name:          name,
		DeployID:      deployID,
		Image:         svc.Image,
		Env:           env,
		Command:       svc.Command,
		InternalPort:  svc.InternalPort,
		PublishedPort: svc.PublishedPort,
		Mounts:        mounts,
		Networks:      networks,
		Restart:       svc.Restart,
	}
}

func scoped(stack, resource string) string {
	return stack + "_" + resource
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
