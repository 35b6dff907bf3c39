package state

// Config holds configuration for the local state store.
type Config struct {
	// Path is the location of the state JSON file.
	Path string `mapstructure:"path" default:"cmdb-state.json"`
}
