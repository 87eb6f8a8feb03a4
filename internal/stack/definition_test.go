package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefinition = `
name: shop
services:
  db:
    image: postgres:16-alpine
    internal_port: 5432
    volumes:
      - name: data
        target: /var/lib/postgresql/data
    networks: [backend]
  app:
    image: shop-app:latest
    internal_port: 8000
    depends_on: [db]
    networks: [backend]
    environment:
      SQL_HOST: db
volumes:
  data:
    private: true
networks:
  backend:
    internal: true
`

func TestParseDefinition(t *testing.T) {
	def, err := Parse([]byte(sampleDefinition))
	require.NoError(t, err)

	assert.Equal(t, "shop", def.Name)
	require.Len(t, def.Services, 2)
	assert.Equal(t, []string{"db"}, def.Services["app"].DependsOn)
	assert.Equal(t, "db", def.Services["app"].Env["SQL_HOST"])
	assert.True(t, def.Volumes["data"].Private)
	assert.True(t, def.Networks["backend"].Internal)
}

func TestParseRejectsNamelessDefinition(t *testing.T) {
	_, err := Parse([]byte("services: {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("services: ["))
	require.Error(t, err)
}

func TestRenderCompose(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "s3cret")

	out, err := def.RenderCompose()
	require.NoError(t, err)
	manifest := string(out)

	assert.Contains(t, manifest, "image: shop-app:latest")
	assert.Contains(t, manifest, "image: postgres:16-alpine")
	assert.Contains(t, manifest, `"1337:80"`)
	assert.Contains(t, manifest, `"8000"`)
	assert.Contains(t, manifest, "static-assets:/home/app/web/staticfiles:ro")
	assert.Contains(t, manifest, "internal: true")
	assert.Contains(t, manifest, "SECRET_KEY=s3cret")
}
