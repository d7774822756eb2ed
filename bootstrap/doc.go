// Package bootstrap wires hydra's components from configuration and manages
// their lifecycle. Both the CLI commands and the HTTP server start here.
//
// Usage:
//
//	logger, sugar, err := bootstrap.InitLogger(cfg.Log.Level, cfg.Log.Format)
//	app, err := bootstrap.NewApp(ctx, cfg, logger, sugar)
//	if err != nil {
//	    return err
//	}
//	defer app.Shutdown()
//
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	app.WaitForShutdown(ctx)
package bootstrap
