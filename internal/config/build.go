package config

// BuildTimeConfig is bound once, at image build, and is immutable afterwards.
// It deliberately carries no secret material: secrets are injected at run
// time only, so nothing sensitive can persist in an image layer.
type BuildTimeConfig struct {
	PythonVersion   string
	GunicornVersion string
	InternalPort    int
	AppUser         string
	AppHome         string
}

// DefaultBuild returns the build parameters of the canonical application
// image.
func DefaultBuild() BuildTimeConfig {
	return BuildTimeConfig{
		PythonVersion:   "3.12",
		GunicornVersion: "23.0.0",
		InternalPort:    8000,
		AppUser:         "app",
		AppHome:         "/home/app/web",
	}
}
