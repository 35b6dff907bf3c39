// Package config provides configuration management for the sync engine.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all settings, divided
// into subsections:
//   - CMDB: record-store endpoint, credentials, retry policy
//   - Database: fleet inventory MySQL connection details
//   - Storage: S3/MinIO credentials for bucket-published manifests
//   - Manifest: manifest directory or bucket prefix
//   - Classify: classification patterns, ranges and keyword tables
//   - Sync: relationship batch size
//   - State: location of the correspondence store file
//   - Log: logging level and format
//
// Bad values in any section (an invalid pattern, an unreachable endpoint)
// fail the run during startup, before the first remote call.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.CMDB.BaseURL)
package config
