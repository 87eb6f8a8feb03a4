package ports

import (
	"context"
	"io"

	"github.com/ersin/stackd/internal/core/domain"
)

// StackService is the control-plane surface over whole stacks.
type StackService interface {
	Deploy(ctx context.Context, req domain.DeployRequest) (domain.StackInfo, error)
	Teardown(ctx context.Context, name string) error
	List(ctx context.Context) ([]domain.StackInfo, error)
	Logs(ctx context.Context, stack, service string) (io.ReadCloser, error)
	// Manifest renders the stack's topology as a compose manifest, with
	// secret material left out.
	Manifest(ctx context.Context, stack string) ([]byte, error)
	// Edge returns the stack's reverse-proxy service; requests from outside
	// the stack are routed to it and to nothing else.
	Edge(ctx context.Context, stack string) (domain.Service, error)
}
