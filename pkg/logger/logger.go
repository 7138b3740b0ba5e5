// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
)

var def *slog.Logger

// Init builds the handler for cfg and installs it as slog's default.
func Init(cfg Config) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "app"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}
	h = traceHandler{h.WithAttrs(commonAttr(cfg))}

	def = slog.New(h)
	slog.SetDefault(def)
}

func L() *slog.Logger {
	if def != nil {
		return def
	}
	Init(Config{})
	return def
}
