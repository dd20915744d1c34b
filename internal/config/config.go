package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./timewarplogs")

	viper.SetDefault("snapToWholeUnits", false)
	viper.SetDefault("realtimeUpdates", true)
	viper.SetDefault("includeMarkers", false)
	viper.SetDefault("renameMarkersOnCommit", false)

	viper.SetDefault("storage.backend", "sqlite")
	viper.SetDefault("storage.sqlitePath", "./timewarp.db")
	viper.SetDefault("storage.dumpIntervalSec", 30)
	viper.SetDefault("storage.outputDir", "./timewarp_out")
	viper.SetDefault("storage.compressOutput", false)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "timewarp")

	viper.SetDefault("api.url", "")
	viper.SetDefault("api.key", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "timewarp-metrics")

	viper.SetConfigName("timewarp.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// ToolConfig groups the interactive-behavior options.
type ToolConfig struct {
	SnapToWholeUnits      bool
	RealtimeUpdates       bool
	IncludeMarkers        bool
	RenameMarkersOnCommit bool
}

// GetToolConfig returns the interactive-behavior options.
func GetToolConfig() ToolConfig {
	return ToolConfig{
		SnapToWholeUnits:      viper.GetBool("snapToWholeUnits"),
		RealtimeUpdates:       viper.GetBool("realtimeUpdates"),
		IncludeMarkers:        viper.GetBool("includeMarkers"),
		RenameMarkersOnCommit: viper.GetBool("renameMarkersOnCommit"),
	}
}

// StorageConfig groups the persistence backend options.
type StorageConfig struct {
	Backend        string
	SqlitePath     string
	DumpInterval   time.Duration
	OutputDir      string
	CompressOutput bool
}

// GetStorageConfig returns the persistence backend options.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:        viper.GetString("storage.backend"),
		SqlitePath:     viper.GetString("storage.sqlitePath"),
		DumpInterval:   time.Duration(viper.GetInt("storage.dumpIntervalSec")) * time.Second,
		OutputDir:      viper.GetString("storage.outputDir"),
		CompressOutput: viper.GetBool("storage.compressOutput"),
	}
}
