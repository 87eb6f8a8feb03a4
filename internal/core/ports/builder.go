package ports

import (
	"context"

	"github.com/ersin/stackd/internal/core/domain"
)

// BuilderService defines the operation for building the application image.
type BuilderService interface {
	// BuildImage acquires the source tree (local path or git clone), renders
	// the two-stage Dockerfile and builds the final runtime image. The build
	// fails before the final stage if the lint gate reports a violation.
	BuildImage(ctx context.Context, req domain.BuildRequest) (domain.ImageRef, error)
}
