package config

// Default configuration values.
const (
	DefaultStateFile  = ".stitchql/state.db"
	DefaultCatalog    = "hive"
	DefaultSchema     = "default"
	DefaultOutput     = "auto" // TTY=text, non-TTY=markdown
	DefaultServerPort = 8085
)

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.SQL.Catalog == "" {
		c.SQL.Catalog = DefaultCatalog
	}
	if c.SQL.Schema == "" {
		c.SQL.Schema = DefaultSchema
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutput
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}
