package config

import (
	"reflect"
	"strings"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/database"
	"cmdb-sync/core/logger"
	"cmdb-sync/core/state"
	"cmdb-sync/core/storage"
	"cmdb-sync/feature/classify"
	"cmdb-sync/feature/manifest"
	"cmdb-sync/feature/relsync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// CMDB holds configuration for the remote record-store client.
	CMDB cmdb.Config `mapstructure:"cmdb"`
	// Database holds configuration for the fleet inventory database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object storage (e.g., S3, Minio)
	// manifests can be published to.
	Storage storage.Config `mapstructure:"storage"`
	// Manifest holds configuration for manifest document loading.
	Manifest manifest.Config `mapstructure:"manifest"`
	// Classify holds the classification tables.
	Classify classify.Config `mapstructure:"classify"`
	// Sync holds configuration for relationship synchronization.
	Sync relsync.Config `mapstructure:"sync"`
	// State holds configuration for the local correspondence store.
	State state.Config `mapstructure:"state"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. CMDB_BASE_URL -> cmdb.base_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
