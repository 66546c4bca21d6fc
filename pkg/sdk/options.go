package quotaguard

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	stateDir   string
	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithStateDir sets the directory holding the quota state file.
// The QUOTAGUARD_STATE_DIR environment variable still takes precedence
// when set; without either, a quotaguard directory under the OS config
// dir is used.
func WithStateDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stateDir = dir
	})
}

// WithLogger enables structured logging for guard operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers guard metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
