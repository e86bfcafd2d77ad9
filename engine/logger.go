package engine

import (
	"log/slog"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// slogger returns the module-wide logger configured via anime4k.SetLogger.
// All logging in this package goes through this function.
func slogger() *slog.Logger { return anime4k.Logger() }
