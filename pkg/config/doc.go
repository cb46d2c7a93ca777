// Package config loads the process configuration from the environment.
//
// Initialize loads an optional .env file with github.com/joho/godotenv, parses every
// package's env-tagged Config with github.com/caarlos0/env/v11 and validates the result
// as a whole. Every problem is collected into one *ConfigError, so a misconfigured
// deployment reports all of its mistakes at once:
//
//	cfg, err := config.Initialize()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// In production (APP_ENV=production) session cookies are always marked Secure.
package config
