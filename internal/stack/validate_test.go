package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersin/stackd/internal/config"
)

func defaultDB() config.DatabaseConfig {
	return config.DatabaseConfig{
		Engine:   "postgres",
		Name:     "app",
		User:     "app",
		Password: "hunter2",
		Host:     "db",
		Port:     5432,
	}
}

func TestValidateDefaultTopology(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "s3cret")
	require.NoError(t, def.Validate())
}

func TestValidateRejectsSecondPublishedPort(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "")
	app := def.Services[ServiceApp]
	app.PublishedPort = 8000
	def.Services[ServiceApp] = app

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one port")
}

func TestValidateRejectsProxyOnBackendNetwork(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "")
	proxy := def.Services[ServiceProxy]
	proxy.Networks = append(proxy.Networks, NetworkBackend)
	def.Services[ServiceProxy] = proxy

	// The proxy does not depend on the database, so sharing a network with it
	// must be rejected: external traffic could otherwise reach storage.
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share network backend")
}

func TestValidateRejectsSecondMounterOfPrivateVolume(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "")
	app := def.Services[ServiceApp]
	app.Volumes = append(app.Volumes, MountDef{Name: VolumeDatabase, Target: "/mnt/db", ReadOnly: true})
	def.Services[ServiceApp] = app

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private volume")
}

func TestValidateRejectsSecondWriter(t *testing.T) {
	def := DefaultDefinition("shop", "shop-app:latest", defaultDB(), "")
	proxy := def.Services[ServiceProxy]
	proxy.Volumes = []MountDef{{Name: VolumeStatic, Target: "/var/www/static"}} // read-write
	def.Services[ServiceProxy] = proxy

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one writer")
}

func TestValidateRejectsUndeclaredNetwork(t *testing.T) {
	def := &Definition{
		Name: "shop",
		Services: map[string]ServiceDef{
			"app": {Image: "app", PublishedPort: 80, Networks: []string{"ghost"}},
		},
	}

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared network")
}

func TestValidateRejectsMissingImage(t *testing.T) {
	def := DefaultDefinition("shop", "", defaultDB(), "")

	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image")
}
