// Package config provides configuration management for the variant manager.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Variant: base dir, main and channel names, output location, ignore patterns
//   - Server: status API switch, port and API key
//   - Database: journal driver and connection details
//   - Storage: S3/MinIO mirror credentials, bucket and prefix
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	roots, err := cfg.Variant.Roots()
package config
