package ports

import (
	"context"
	"io"

	"github.com/ersin/stackd/internal/core/domain"
)

// ContainerRuntime defines the container-engine operations the stack deployer
// needs. This interface allows us to switch between Docker, Podman, or
// Kubernetes without changing the orchestration logic.
type ContainerRuntime interface {
	// EnsureVolume creates the named volume if it does not exist yet.
	// Existing volumes are left untouched, content included.
	EnsureVolume(ctx context.Context, name string) error
	// EnsureNetwork creates the named network if missing. Internal networks
	// are unreachable from outside the engine host.
	EnsureNetwork(ctx context.Context, name string, internal bool) error
	RemoveNetwork(ctx context.Context, name string) error

	// CreateService creates (but does not start) a container for the spec and
	// returns its ID.
	CreateService(ctx context.Context, spec domain.ServiceSpec) (string, error)
	StartService(ctx context.Context, id string) error
	StopService(ctx context.Context, id string) error
	RemoveService(ctx context.Context, id string) error

	// ListServices returns the service containers of one stack, or of all
	// stacks when stack is empty.
	ListServices(ctx context.Context, stack string) ([]domain.Service, error)
	ServiceLogs(ctx context.Context, id string) (io.ReadCloser, error)
}
