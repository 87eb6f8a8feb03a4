package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/ersin/stackd/internal/core/domain"
)

// Labels stamped on every container stackd creates; listing and teardown
// resolve services through them.
const (
	labelStack   = "stackd.stack"
	labelService = "stackd.service"
	labelDeploy  = "stackd.deploy"
)

// Adapter implements ports.ContainerRuntime using the Docker SDK.
type Adapter struct {
	cli *client.Client
}

// NewAdapter creates a new Docker adapter instance.
func NewAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// EnsureVolume creates the named volume if needed. Creating an existing named
// volume is a no-op on the daemon side, so prior content always survives.
func (a *Adapter) EnsureVolume(ctx context.Context, name string) error {
	if _, err := a.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name}); err != nil {
		return fmt.Errorf("failed to create volume %s: %w", name, err)
	}
	return nil
}

func (a *Adapter) EnsureNetwork(ctx context.Context, name string, internal bool) error {
	_, err := a.cli.NetworkInspect(ctx, name, types.NetworkInspectOptions{})
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect network %s: %w", name, err)
	}
	_, err = a.cli.NetworkCreate(ctx, name, types.NetworkCreate{
		Driver:   "bridge",
		Internal: internal,
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return nil
}

func (a *Adapter) RemoveNetwork(ctx context.Context, name string) error {
	if err := a.cli.NetworkRemove(ctx, name); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to remove network %s: %w", name, err)
	}
	return nil
}

// CreateService creates a container for the spec without starting it. The
// internal port is exposed to the service's networks only; a host binding
// exists only when the spec publishes a port.
func (a *Adapter) CreateService(ctx context.Context, spec domain.ServiceSpec) (string, error) {
	cfg := &container.Config{
		Image: spec.Image,
		Env:   spec.Env,
		Labels: map[string]string{
			labelStack:   spec.Stack,
			labelService: spec.Name,
			labelDeploy:  spec.DeployID,
		},
	}
	if len(spec.Command) > 0 {
		cfg.Cmd = spec.Command
	}

	hostCfg := &container.HostConfig{}
	if spec.Restart != "" {
		hostCfg.RestartPolicy = container.RestartPolicy{Name: container.RestartPolicyMode(spec.Restart)}
	}
	if spec.InternalPort != 0 {
		port, err := nat.NewPort("tcp", strconv.Itoa(spec.InternalPort))
		if err != nil {
			return "", fmt.Errorf("invalid internal port: %w", err)
		}
		cfg.ExposedPorts = nat.PortSet{port: struct{}{}}
		if spec.PublishedPort != 0 {
			hostCfg.PortBindings = nat.PortMap{
				port: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(spec.PublishedPort)}},
			}
		}
	}
	for _, m := range spec.Mounts {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeVolume,
			Source:   m.Volume,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	// The daemon only honors a single endpoint at create time; remaining
	// networks are connected before start.
	networks := make([]string, 0, len(spec.Networks))
	for name := range spec.Networks {
		networks = append(networks, name)
	}
	sort.Strings(networks)

	var netCfg *network.NetworkingConfig
	if len(networks) > 0 {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				networks[0]: {Aliases: spec.Networks[networks[0]]},
			},
		}
	}

	name := spec.Stack + "-" + spec.Name
	resp, err := a.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s: %w", name, err)
	}

	for _, net := range networks[min(1, len(networks)):] {
		err := a.cli.NetworkConnect(ctx, net, resp.ID, &network.EndpointSettings{
			Aliases: spec.Networks[net],
		})
		if err != nil {
			return "", fmt.Errorf("failed to connect %s to %s: %w", name, net, err)
		}
	}

	return resp.ID, nil
}

func (a *Adapter) StartService(ctx context.Context, id string) error {
	if err := a.cli.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

// StopService stops a running service container.
func (a *Adapter) StopService(ctx context.Context, id string) error {
	timeout := 10 * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.cli.ContainerStop(ctx, id, container.StopOptions{})
}

func (a *Adapter) RemoveService(ctx context.Context, id string) error {
	if err := a.cli.ContainerRemove(ctx, id, types.ContainerRemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// ListServices returns the service containers of one stack, or of every stack
// when stack is empty. Stopped containers are included.
func (a *Adapter) ListServices(ctx context.Context, stack string) ([]domain.Service, error) {
	args := filters.NewArgs()
	if stack != "" {
		args.Add("label", labelStack+"="+stack)
	} else {
		args.Add("label", labelStack)
	}

	containers, err := a.cli.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var result []domain.Service
	for _, c := range containers {
		result = append(result, domain.Service{
			ID:        c.ID[:12], // short ID
			Stack:     c.Labels[labelStack],
			DeployID:  c.Labels[labelDeploy],
			Name:      c.Labels[labelService],
			Image:     c.Image,
			Status:    c.Status,
			State:     c.State,
			IPAddress: firstIP(c),
		})
	}
	return result, nil
}

// ServiceLogs returns a stream of the container's output.
func (a *Adapter) ServiceLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	options := types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	}
	return a.cli.ContainerLogs(ctx, id, options)
}

func firstIP(c types.Container) string {
	if c.NetworkSettings == nil {
		return ""
	}
	names := make([]string, 0, len(c.NetworkSettings.Networks))
	for name := range c.NetworkSettings.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if ep := c.NetworkSettings.Networks[name]; ep != nil && ep.IPAddress != "" {
			return ep.IPAddress
		}
	}
	return ""
}
