package config

// GlobalFlags contains common flags used across commands
type GlobalFlags struct {
	// Path of the manifest holding [package] and the cook settings
	ManifestPath string
	Verbose      bool
	NoColor      bool
}

// DefaultManifestPath is read when --manifest-path is not given.
const DefaultManifestPath = "Cargo.toml"

// Global is the shared instance of GlobalFlags
var Global = GlobalFlags{ManifestPath: DefaultManifestPath}
