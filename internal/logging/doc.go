// Package logging builds the structured loggers used across dispatch
// and provides utilities for working with the logs they produce.
//
// Logs are JSON-formatted slog records. When a log directory is
// configured they are written to dispatch.log in that directory through
// a size-rotating writer; otherwise they go to stderr.
//
// # Main Types
//
//   - [New]: Builds a *slog.Logger plus a close function
//   - [RotatingWriter]: io.Writer that rotates the log file by size,
//     optionally gzip-compressing backups
//   - [LogEntry] / [LogFilter]: Parsed log records and filter criteria
//     for post-hoc analysis
//
// # Basic Usage
//
// Create a logger writing to a directory:
//
//	logger, closeLog, err := logging.New("/var/lib/dispatch/logs", "info")
//	if err != nil {
//		return err
//	}
//	defer closeLog()
//
//	logger.Info("coordinator starting", "parallelism", 8)
//
// # Analyzing Logs
//
// Aggregate, filter, and export a run's records:
//
//	entries, err := logging.AggregateLogs("/var/lib/dispatch/logs")
//	if err != nil {
//		return err
//	}
//	failed := logging.FilterLogs(entries, logging.LogFilter{
//		Level:           "warn",
//		MessageContains: "submission",
//	})
//	err = logging.ExportLogEntries(failed, "failures.csv", "csv")
//
// The same functionality is exposed on the command line as
// "dispatch logs".
package logging
