// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/pindown/pindown/internal/adapters/index"
	_ "github.com/pindown/pindown/internal/adapters/lockstore"
	_ "github.com/pindown/pindown/internal/adapters/logger"
	_ "github.com/pindown/pindown/internal/adapters/manifest"
	_ "github.com/pindown/pindown/internal/adapters/telemetry"
	// Register app nodes.
	_ "github.com/pindown/pindown/internal/app"
)
