package sequencer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CollectStatic mirrors the image's static asset tree into the shared static
// volume. The target is cleared first: the volume's sole purpose is to hold
// the current image's assets, so the refresh is destructive and safe to
// repeat — after any run the volume content equals the image content exactly.
type CollectStatic struct {
	Source string
	Target string
}

func (CollectStatic) Name() string { return "collectstatic" }

func (s CollectStatic) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.Target, 0o755); err != nil {
		return fmt.Errorf("ensure static root: %w", err)
	}

	// Clear the directory's content, not the directory itself: the target is
	// a volume mount point and must stay in place.
	entries, err := os.ReadDir(s.Target)
	if err != nil {
		return fmt.Errorf("read static root: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.Target, e.Name())); err != nil {
			return fmt.Errorf("clear static root: %w", err)
		}
	}

	if _, err := os.Stat(s.Source); os.IsNotExist(err) {
		// An image without static assets yields an empty volume.
		return nil
	} else if err != nil {
		return fmt.Errorf("stat static source: %w", err)
	}

	if err := os.CopyFS(s.Target, os.DirFS(s.Source)); err != nil {
		return fmt.Errorf("copy static assets: %w", err)
	}
	return nil
}
