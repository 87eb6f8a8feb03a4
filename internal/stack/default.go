package stack

import (
	"strconv"

	"github.com/ersin/stackd/internal/config"
)

// Canonical service, volume and network names of the fixed topology.
const (
	ServiceDatabase = "db"
	ServiceApp      = "app"
	ServiceProxy    = "proxy"

	VolumeStatic   = "static-assets"
	VolumeDatabase = "postgres-data"

	NetworkBackend = "backend"
	NetworkEdge    = "edge"
)

// DefaultDefinition builds the canonical topology: postgres, the application
// server image, and an nginx edge. The database's bootstrap environment and
// the application's connection environment derive from the same
// DatabaseConfig, so the two sides cannot disagree. The secret is injected
// here, at run time, and nowhere else.
func DefaultDefinition(name, appImage string, db config.DatabaseConfig, secretKey string) *Definition {
	dbPort := strconv.Itoa(db.Port)

	appEnv := map[string]string{
		"SQL_ENGINE":   db.Engine,
		"SQL_DATABASE": db.Name,
		"SQL_USER":     db.User,
		"SQL_PASSWORD": db.Password,
		"SQL_HOST":     ServiceDatabase,
		"SQL_PORT":     dbPort,
		"PRODUCTION":   "true",
	}
	if secretKey != "" {
		appEnv["SECRET_KEY"] = secretKey
	}

	return &Definition{
		Name: name,
		Services: map[string]ServiceDef{
			ServiceDatabase: {
				Image: "postgres:16-alpine",
				Env: map[string]string{
					"POSTGRES_USER":     db.User,
					"POSTGRES_PASSWORD": db.Password,
					"POSTGRES_DB":       db.Name,
					"PGPORT":            dbPort,
				},
				InternalPort: db.Port,
				Volumes: []MountDef{
					{Name: VolumeDatabase, Target: "/var/lib/postgresql/data"},
				},
				Networks: []string{NetworkBackend},
				Restart:  "unless-stopped",
			},
			ServiceApp: {
				Image:        appImage,
				Env:          appEnv,
				InternalPort: 8000,
				Volumes: []MountDef{
					{Name: VolumeStatic, Target: "/home/app/web/staticfiles"},
				},
				Networks:  []string{NetworkBackend, NetworkEdge},
				DependsOn: []string{ServiceDatabase},
				Restart:   "unless-stopped",
			},
			ServiceProxy: {
				Image:         "nginx:1.27-alpine",
				InternalPort:  80,
				PublishedPort: 1337,
				Volumes: []MountDef{
					{Name: VolumeStatic, Target: "/home/app/web/staticfiles", ReadOnly: true},
				},
				Networks:  []string{NetworkEdge},
				DependsOn: []string{ServiceApp},
				Restart:   "unless-stopped",
			},
		},
		Volumes: map[string]VolumeDef{
			VolumeStatic:   {},
			VolumeDatabase: {Private: true},
		},
		Networks: map[string]NetworkDef{
			NetworkBackend: {Internal: true},
			NetworkEdge:    {},
		},
	}
}
