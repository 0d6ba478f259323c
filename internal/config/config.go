// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Output struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"output"`
	State struct {
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"state"`
	Stealth struct {
		Profile string `mapstructure:"profile"`
	} `mapstructure:"stealth"`
	Fetch struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
	} `mapstructure:"fetch"`
	Merge struct {
		Enabled     bool   `mapstructure:"enabled"`
		FFmpegPath  string `mapstructure:"ffmpeg_path"`
		FFprobePath string `mapstructure:"ffprobe_path"`
	} `mapstructure:"merge"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "TOME_" prefix.
	// e.g., TOME_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("TOME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("database.path", "./tome.db")
	viper.SetDefault("output.path", "./audiobooks")
	viper.SetDefault("state.path", "./state")
	viper.SetDefault("state.retention_days", 30)
	viper.SetDefault("stealth.profile", "balanced")
	viper.SetDefault("fetch.timeout_seconds", 30)
	viper.SetDefault("merge.enabled", true)
	viper.SetDefault("merge.ffmpeg_path", "ffmpeg")
	viper.SetDefault("merge.ffprobe_path", "ffprobe")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
