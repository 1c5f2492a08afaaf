// Package logger builds *slog.Logger values for uikit services.
//
// New takes functional options selecting the output format, level, static
// attributes and ContextExtractor callbacks. Extractors run on every record, so
// request-scoped values such as the request id end up in each line without the
// caller passing them explicitly.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, cfg.ServiceName),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "action executed",
//	    logger.Action(entry),
//	    logger.State("SUCCESS"),
//	    logger.Duration(elapsed),
//	)
//
// Attribute helpers (Action, Descriptor, State, Ordinal, Namespace, Provider,
// Error, Errors ...) keep key names consistent across packages. Error and Errors
// return an empty attribute for nil errors, which slog drops.
package logger
