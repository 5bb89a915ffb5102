package telemetry

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"github.com/pindown/pindown/internal/adapters/logger"
	"github.com/pindown/pindown/internal/core/ports"
)

// NodeID is the unique identifier for the tracer Graft node.
const NodeID graft.ID = "adapter.tracer"

// EnvVerbose enables span duration reporting through the logger.
const EnvVerbose = "PINDOWN_VERBOSE"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			verbose := os.Getenv(EnvVerbose) != ""
			Setup(NewLogBridge(log, verbose))

			return NewOTelTracer("pindown"), nil
		},
	})
}
