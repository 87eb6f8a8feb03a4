package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersin/stackd/internal/config"
	"github.com/ersin/stackd/internal/core/domain"
)

func testAdapter() *Adapter {
	return &Adapter{cfg: config.DefaultBuild(), log: zerolog.Nop()}
}

func TestStageContextFromSourceDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "requirements.txt"), []byte("Django==5.0\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "backend"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "backend", "wsgi.py"), []byte("app\n"), 0o644))

	bin := filepath.Join(t.TempDir(), "entrypoint")
	require.NoError(t, os.WriteFile(bin, []byte("\x7fELF"), 0o755))

	a := testAdapter()
	ctxDir, err := a.stageContext(context.Background(), domain.BuildRequest{
		SourceDir:     src,
		ImageName:     "shop-app:latest",
		EntrypointBin: bin,
	})
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ctxDir) })

	dockerfile, err := os.ReadFile(filepath.Join(ctxDir, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(dockerfile), "AS builder")

	staged, err := os.ReadFile(filepath.Join(ctxDir, "entrypoint"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x7fELF"), staged)

	_, err = os.Stat(filepath.Join(ctxDir, "backend", "wsgi.py"))
	assert.NoError(t, err)
}

func TestStageContextRequiresASource(t *testing.T) {
	a := testAdapter()
	_, err := a.stageContext(context.Background(), domain.BuildRequest{ImageName: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither source dir nor repo URL")
}

func TestContextDigestStableForIdenticalInput(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mkCtx := func(content string) string {
		dir := t.TempDir()
		path := filepath.Join(dir, "requirements.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, stamp, stamp))
		require.NoError(t, os.Chtimes(dir, stamp, stamp))
		return dir
	}

	a, err := contextDigest(mkCtx("Django==5.0\n"))
	require.NoError(t, err)
	b, err := contextDigest(mkCtx("Django==5.0\n"))
	require.NoError(t, err)
	c, err := contextDigest(mkCtx("Django==4.2\n"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestScanBuildOutputCleanStream(t *testing.T) {
	stream := `{"stream":"Step 1/20 : FROM python:3.12-alpine AS builder"}
{"stream":" ---> abcdef"}
{"stream":"Successfully built abcdef"}
`
	assert.NoError(t, scanBuildOutput(strings.NewReader(stream)))
}

func TestScanBuildOutputLintGate(t *testing.T) {
	stream := `{"stream":"Step 8/20 : RUN flake8 --ignore=E501,F401,E128 ."}
{"stream":"app/views.py:12:1: E302 expected 2 blank lines, got 1"}
{"errorDetail":{"message":"The command '/bin/sh -c flake8 --ignore=E501,F401,E128 .' returned a non-zero code: 1"},"error":"The command returned a non-zero code: 1"}
`
	err := scanBuildOutput(strings.NewReader(stream))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLintGate)
}

func TestScanBuildOutputGenericFailure(t *testing.T) {
	stream := `{"stream":"Step 12/20 : RUN pip install --no-cache /wheels/*"}
{"errorDetail":{"message":"no space left on device"},"error":"no space left on device"}
`
	err := scanBuildOutput(strings.NewReader(stream))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLintGate)
	assert.Contains(t, err.Error(), "no space left on device")
}
