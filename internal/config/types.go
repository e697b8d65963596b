// Package config provides configuration loading for stitchql. Settings
// come from a project file (stitchql.yaml), environment variables, and
// CLI flags, merged in that order.
package config

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Port int `koanf:"port"`
	// Watch reloads the join graph when the lineage file changes.
	Watch bool `koanf:"watch"`
}

// SQLConfig holds SQL generation settings.
type SQLConfig struct {
	// Catalog and Schema qualify bare table names in generated SQL.
	Catalog string `koanf:"catalog"`
	Schema  string `koanf:"schema"`
	// StrictJoins fails compilation instead of guessing a join
	// condition from naming conventions.
	StrictJoins bool `koanf:"strict_joins"`
}

// Config holds all configuration options.
type Config struct {
	// LineagePath is the join metadata file (JSON or YAML).
	LineagePath string `koanf:"lineage_path"`
	// StatePath is the SQLite database holding notebooks and compile
	// history.
	StatePath string `koanf:"state_path"`

	SQL    SQLConfig    `koanf:"sql"`
	Server ServerConfig `koanf:"server"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}
