package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/go-git/go-git/v5"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog"

	"github.com/ersin/stackd/internal/config"
	"github.com/ersin/stackd/internal/core/domain"
)

// ErrLintGate reports that the static-analysis gate rejected the source tree.
// The build aborts before the final stage, so no image is produced.
var ErrLintGate = errors.New("lint gate failed")

const contextDigestLabel = "stackd.context-digest"

// Adapter implements ports.BuilderService using the Docker SDK.
type Adapter struct {
	cli *client.Client
	cfg config.BuildTimeConfig
	log zerolog.Logger
}

func NewAdapter(cfg config.BuildTimeConfig, log zerolog.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli, cfg: cfg, log: log}, nil
}

// BuildImage assembles a build context (cloned or copied source tree, the
// rendered Dockerfile, the entrypoint binary), digests it, and runs the
// two-stage build. The context digest is recorded as an image label so the
// final stage's inputs stay traceable without consulting the daemon.
func (a *Adapter) BuildImage(ctx context.Context, req domain.BuildRequest) (domain.ImageRef, error) {
	ctxDir, err := a.stageContext(ctx, req)
	if err != nil {
		return domain.ImageRef{}, err
	}
	defer os.RemoveAll(ctxDir)

	dgst, err := contextDigest(ctxDir)
	if err != nil {
		return domain.ImageRef{}, err
	}

	tar, err := archive.TarWithOptions(ctxDir, &archive.TarOptions{})
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("failed to create build context: %w", err)
	}
	defer tar.Close()

	a.log.Info().Str("image", req.ImageName).Str("context", dgst.String()).Msg("building image")
	resp, err := a.cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:       []string{req.ImageName},
		Dockerfile: "Dockerfile",
		Remove:     true,
		Version:    types.BuilderBuildKit,
		Labels:     map[string]string{contextDigestLabel: dgst.String()},
	})
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	if err := scanBuildOutput(resp.Body); err != nil {
		return domain.ImageRef{}, err
	}

	return domain.ImageRef{Name: req.ImageName, ContextDigest: dgst}, nil
}

// stageContext materializes the build context in a temp directory: the source
// tree (cloned from a URL or copied from disk), the generated Dockerfile and
// the startup sequencer binary.
func (a *Adapter) stageContext(ctx context.Context, req domain.BuildRequest) (string, error) {
	tmpDir, err := os.MkdirTemp("", "stackd-build-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	switch {
	case req.RepoURL != "":
		_, err = git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
			URL:   req.RepoURL,
			Depth: 1, // shallow clone for speed
		})
		if err != nil {
			cleanup()
			return "", fmt.Errorf("failed to clone repo: %w", err)
		}
		// Clone history is not part of the image input.
		if err := os.RemoveAll(filepath.Join(tmpDir, ".git")); err != nil {
			cleanup()
			return "", fmt.Errorf("strip clone metadata: %w", err)
		}
	case req.SourceDir != "":
		if err := os.CopyFS(tmpDir, os.DirFS(req.SourceDir)); err != nil {
			cleanup()
			return "", fmt.Errorf("copy source tree: %w", err)
		}
	default:
		cleanup()
		return "", fmt.Errorf("build request has neither source dir nor repo URL")
	}

	dockerfile, err := RenderDockerfile(a.cfg)
	if err != nil {
		cleanup()
		return "", err
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "Dockerfile"), dockerfile, 0o644); err != nil {
		cleanup()
		return "", fmt.Errorf("write dockerfile: %w", err)
	}

	if req.EntrypointBin != "" {
		bin, err := os.ReadFile(req.EntrypointBin)
		if err != nil {
			cleanup()
			return "", fmt.Errorf("read entrypoint binary: %w", err)
		}
		if err := os.WriteFile(filepath.Join(tmpDir, "entrypoint"), bin, 0o755); err != nil {
			cleanup()
			return "", fmt.Errorf("stage entrypoint binary: %w", err)
		}
	}

	return tmpDir, nil
}

// contextDigest hashes the staged context so identical inputs are
// recognizable across builds.
func contextDigest(dir string) (digest.Digest, error) {
	tar, err := archive.TarWithOptions(dir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("tar context for digest: %w", err)
	}
	defer tar.Close()

	dgst, err := digest.Canonical.FromReader(tar)
	if err != nil {
		return "", fmt.Errorf("digest context: %w", err)
	}
	return dgst, nil
}

// buildMessage is the subset of the daemon's build stream we care about.
type buildMessage struct {
	Stream      string `json:"stream"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

// scanBuildOutput drains the build stream and turns a reported failure into
// an error. A failure in the flake8 step is classified as a lint-gate
// rejection; it happens in the builder stage, before the final image exists.
func scanBuildOutput(r io.Reader) error {
	dec := json.NewDecoder(r)
	var lastStream string
	for {
		var msg buildMessage
		if err := dec.Decode(&msg); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("read build output: %w", err)
		}
		if strings.TrimSpace(msg.Stream) != "" {
			lastStream = msg.Stream
		}
		if msg.Error != "" {
			detail := msg.ErrorDetail.Message
			if detail == "" {
				detail = msg.Error
			}
			if strings.Contains(lastStream, "flake8") || strings.Contains(detail, "flake8") {
				return fmt.Errorf("%w: %s", ErrLintGate, detail)
			}
			return fmt.Errorf("image build failed: %s", detail)
		}
	}
}
