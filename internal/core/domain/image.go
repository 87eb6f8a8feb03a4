package domain

import "github.com/opencontainers/go-digest"

// ImageRef identifies a built application image. ContextDigest is the digest
// of the tarred build context the image was produced from, so two builds over
// identical inputs can be recognized without consulting the daemon.
type ImageRef struct {
	Name          string        `json:"name"`
	ContextDigest digest.Digest `json:"context_digest"`
}

// BuildRequest carries the inputs of an image build. Exactly one of SourceDir
// and RepoURL must be set; EntrypointBin points at the compiled startup
// sequencer binary that gets baked into the final image.
type BuildRequest struct {
	SourceDir     string
	RepoURL       string
	ImageName     string
	EntrypointBin string
}
