package agentspace

import (
	"github.com/viant/agentspace/service/engine"
)

// Config is a serialisable representation of the service configuration. The
// zero value is useful; nested fields inherit their package defaults.
type Config struct {
	Engine engine.Config `json:"engine" yaml:"engine"`
}

// DefaultConfig returns a Config populated with package defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings, nil when sound.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	return c.Engine.Validate()
}
