package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays GOPHMATCH_* variables that are set; unset ones keep the
// current value.
func parseEnv(config *Config) error {
	return cleanenv.ReadEnv(config)
}
