package builder

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/ersin/stackd/internal/config"
)

// The application image is always produced from this fixed template, never
// from a Dockerfile in the source tree: rebuilding regenerates it verbatim.
//
// Stage 1 carries the native toolchain, pre-builds every declared dependency
// plus gunicorn into wheels and runs the lint gate; any violation outside the
// suppressed categories fails the build before the final stage is assembled.
// Stage 2 starts clean, installs only runtime shared libraries and the
// prebuilt wheels, and drops to an unprivileged user before anything else
// runs. No secret is accepted at build time by construction.
const dockerfileTemplate = `# syntax=docker/dockerfile:1

FROM python:{{.PythonVersion}}-alpine AS builder

WORKDIR /usr/src/app

ENV PYTHONDONTWRITEBYTECODE=1
ENV PYTHONUNBUFFERED=1

RUN apk add --no-cache gcc musl-dev postgresql-dev python3-dev libffi-dev

RUN pip install --upgrade pip
RUN pip install flake8

COPY . /usr/src/app/

RUN flake8 --ignore=E501,F401,E128 .

RUN pip wheel --no-cache-dir --no-deps --wheel-dir /usr/src/app/wheels \
    -r requirements.txt gunicorn=={{.GunicornVersion}}

FROM python:{{.PythonVersion}}-alpine

RUN addgroup -S {{.AppUser}} && adduser -S {{.AppUser}} -G {{.AppUser}}

ENV APP_HOME={{.AppHome}}
RUN mkdir -p {{.AppHome}}/staticfiles
WORKDIR {{.AppHome}}

RUN apk add --no-cache libpq

COPY --from=builder /usr/src/app/wheels /wheels
COPY --from=builder /usr/src/app/requirements.txt .
RUN pip install --no-cache /wheels/*

COPY ./entrypoint /usr/local/bin/entrypoint
COPY . {{.AppHome}}

RUN chown -R {{.AppUser}}:{{.AppUser}} {{.AppHome}}

USER {{.AppUser}}

EXPOSE {{.InternalPort}}

ENTRYPOINT ["/usr/local/bin/entrypoint"]
`

var dockerfileTmpl = template.Must(template.New("dockerfile").Parse(dockerfileTemplate))

// RenderDockerfile expands the fixed template with the build-time parameters.
func RenderDockerfile(cfg config.BuildTimeConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := dockerfileTmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("render dockerfile: %w", err)
	}
	return buf.Bytes(), nil
}
