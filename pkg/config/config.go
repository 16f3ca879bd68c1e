package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// LoadConfig reads the scanner's config file (if present) and seeds
// defaults for anything it omits, following the same
// SetConfigName/AddConfigPath/ReadInConfig idiom the teacher uses for
// its own process-wide configuration.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/gqlsentinel/")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Msg("Config file not found, using defaults")
		} else {
			log.Panic().Err(err).Msg("Fatal error reading config file")
		}
	}
	SetDefaultConfig()
}

// SetDefaultConfig seeds every default the scan engine, CLI, job
// façade and persistence layer rely on.
func SetDefaultConfig() {
	// Logging
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.console.format", "pretty")
	viper.SetDefault("logging.file.enabled", false)
	viper.SetDefault("logging.file.path", "gqlsentinel.log")

	// Transport timeouts, in seconds, per spec.md §5
	viper.SetDefault("scan.timeouts.connectivity", 5)
	viper.SetDefault("scan.timeouts.introspection", 15)
	viper.SetDefault("scan.timeouts.depth_probe", 15)
	viper.SetDefault("scan.timeouts.pagination_probe", 20)
	viper.SetDefault("scan.timeouts.bola_probe", 15)

	// Pacing and concurrency
	viper.SetDefault("scan.probe_pause_ms", 50)
	viper.SetDefault("scan.bola_concurrency", 5)

	// DoS probe parameters
	viper.SetDefault("scan.dos.depth", 7)
	viper.SetDefault("scan.dos.pagination_threshold", 100)

	// Job/queue façade
	viper.SetDefault("jobs.queue_concurrency", 5)

	// Persistence (external job façade)
	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.sqlite_path", "gqlsentinel.db")

	// API façade
	viper.SetDefault("api.listen.host", "")
	viper.SetDefault("api.listen.port", 8013)
}
