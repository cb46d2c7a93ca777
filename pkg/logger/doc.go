// Package logger builds *slog.Logger values for authcore.
//
// NewFromConfig picks a level and format from the deployment environment (text at debug
// level in development, JSON at info level elsewhere) and tags every record with the
// service name and environment. LOG_LEVEL and LOG_FORMAT override the preset.
//
//	log := logger.NewFromConfig(cfg.Log, cfg.AppEnv, cfg.ServiceName)
//	logger.SetAsDefault(log)
//
// Attributes placed on a context with ContextWith are added to every record logged
// with that context:
//
//	ctx = logger.ContextWith(ctx, slog.String("command", "unlock"))
//	log.InfoContext(ctx, "account unlocked", logger.UserID(id), logger.Email(addr))
//
// Email masks addresses so they never appear in full.
package logger
