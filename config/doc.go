// Package config loads pipekit configuration.
//
// Values are layered with Viper: an optional pipekit.yml (searched in ./
// and ./config/), then a .env file loaded with godotenv, then the process
// environment. Environment keys are matched against nested keys, so
// PROGRESS_BASE_URL sets progress.base_url and LOGGING_LEVEL sets
// logging.level.
//
//	cfg, err := config.Load(config.WithEnvFile(".env.ci"))
package config
