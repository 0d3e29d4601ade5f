package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
// Output, UnknownRefs, and Workers override the manifest only when they are
// set; the zero value means "use the manifest".
type Config struct {
	ManifestPath string

	Output      string
	UnknownRefs string
	Workers     int

	Watch      bool
	StatusPort int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config assembled by an entrypoint.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
