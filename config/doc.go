// Package config loads nativesvc configuration with Viper.
//
// LoadConfig looks for cmd/<service>/config.yml (or ./config.yml) and a
// .env file, then lets environment variables override file values:
// CONNECTION_BODY_MODE sets connection.body_mode. Load does the same and
// then applies defaults and validates.
//
//	cfg, err := config.Load[Config]("nativesvc")
package config
