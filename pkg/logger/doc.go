// Package logger is a thin factory over log/slog with context-aware
// attribute injection.
//
// Its main job in this module is making tenant attribution automatic:
// register the tenant extractor once and every record logged inside a
// routed unit of work carries the bound tenant ID.
//
//	log := logger.New(
//		logger.WithProduction("tenancy"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
package logger
