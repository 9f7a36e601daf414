// Package logger configures the application's structured logging and carries
// request-scoped loggers through context.
//
// Setup builds the process-wide slog.Logger from configuration. HTTP
// middleware attaches a request-scoped logger (with trace id) to the request
// context via WithLogger; lower layers retrieve it with FromContextOrDefault
// so log lines stay correlated without threading a logger through every call.
package logger
