package bootstrap

import (
	"hydra/config"
	"hydra/core"
	"hydra/discovery"
	"hydra/service"

	"go.uber.org/zap"
)

// InitDiscoveryService builds the orchestrator around the OC-DFG discoverer.
// With discovery.visualize set, every model is also written as a DOT file to
// discovery.output_dir.
func InitDiscoveryService(cfg *config.Config, sugar *zap.SugaredLogger, extra ...core.Observer) *service.DiscoveryService {
	observers := core.MultiObserver{core.NewLogObserver(sugar), core.MetricsObserver{}}
	observers = append(observers, extra...)

	opts := []service.Option{
		service.WithObserver(observers),
		service.WithContinueOnError(cfg.Discovery.ContinueOnError),
	}
	if cfg.Discovery.Visualize {
		opts = append(opts, service.WithVisualizer(discovery.NewDOTVisualizer(cfg.Discovery.OutputDir, sugar)))
		sugar.Debugw("DOT visualization enabled", "output_dir", cfg.Discovery.OutputDir)
	}

	discoverer := discovery.NewOCDFGDiscoverer(cfg.Discovery.MinEdgeFrequency, sugar)
	return service.NewDiscoveryService(discoverer, sugar, opts...)
}
