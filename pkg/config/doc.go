// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	WARDEN_HOST="0.0.0.0"
//	WARDEN_PORT="8080"
//	WARDEN_READ_TIMEOUT="15s"
//	WARDEN_WRITE_TIMEOUT="15s"
//	WARDEN_SHUTDOWN_TIMEOUT="30s"
//
// Role storage settings:
//
//	WARDEN_ROLES_FILE="roles.yml"
//	WARDEN_ROLES_WATCH="true"
//
// Observability settings:
//
//	WARDEN_LOG_LEVEL="info"  # debug, info, warn, error
//	WARDEN_LOG_FORMAT="json" # json, text
//	WARDEN_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Roles file: %s\n", cfg.Roles.FilePath)
//
// # Related Packages
//
//   - pkg/authz/store: Uses the role storage configuration
//   - pkg/observability: Uses the observability configuration
package config
