// Package logger builds the service's slog loggers. It produces JSON output
// for production and text for development, and supports context extractors
// that enrich every record with request-scoped attributes such as the
// request id and the authenticated tenant id.
//
//	log := logger.New(
//	    logger.WithEnvironment(env, "tenantgate"),
//	    logger.WithContextExtractors(
//	        requestid.LoggerExtractor(),
//	        authgate.LoggerExtractor(),
//	    ),
//	)
//	logger.SetAsDefault(log)
package logger
