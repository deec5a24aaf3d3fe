// Package logger builds the application's slog loggers.
//
// New applies functional options (level, format, output, static attributes)
// and wraps the handler in a decorator that extracts attributes from context
// on every record. Register tenant.LogAttr as an extractor and every record
// logged inside a tenant scope carries tenant_id without the call sites
// knowing about tenancy:
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "platform"),
//		logger.WithContextExtractors(tenant.LogAttr()),
//	)
//	logger.SetAsDefault(log)
package logger
