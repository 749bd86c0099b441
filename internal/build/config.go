package build

import "time"

// Config configures where the builder lives and how long a render may take.
type Config struct {
	Path    string        `env:"PATH"`    // default: "builder"
	Timeout time.Duration `env:"TIMEOUT"` // default: DefaultTimeout
}
