package config

import "time"

// DatabaseConfig holds auction store configuration
type DatabaseConfig struct {
	URL          string
	Backend      string
	Timeout      time.Duration
	SeedListings int
}

// GetConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return c.URL
}

// UsesPostgres reports whether the PostgreSQL backend is selected
func (c *DatabaseConfig) UsesPostgres() bool {
	return c.Backend == BackendPostgres
}
