package config

import (
	"fmt"
	"time"
)

// Config holds the global configuration for an ingestion run
type Config struct {
	// Input settings
	InputFile   string // Path to the .osm.pbf extract
	MappingFile string // Path to the category mapping (json, yaml, or lua)

	// Scratch space for the node coordinate index
	WorkDir string

	// Database settings
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSchema   string

	// Processing settings
	BatchSize        int // POI records per load transaction
	ProgressInterval int // Records between progress log lines
	GCInterval       int // Records between memory reclamation hints

	Verbose bool

	// Logging and metrics
	LogFile         string
	MetricsInterval time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MappingFile:      "category_mapping.yaml",
		WorkDir:          "./fourmore_data",
		DBHost:           "localhost",
		DBPort:           5432,
		DBName:           "fourmore",
		DBUser:           "postgres",
		DBPassword:       "",
		DBSchema:         "public",
		BatchSize:        5000,
		ProgressInterval: 25000,
		GCInterval:       50000,
		MetricsInterval:  30 * time.Second,
	}
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.MappingFile == "" {
		return fmt.Errorf("category mapping file is required")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	if c.ProgressInterval < 1 {
		return fmt.Errorf("progress interval must be at least 1")
	}
	return nil
}
