// Package logging provides a simple leveled logging interface for
// mediadex.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
//
// The package also provides [Ring], a small fixed-capacity buffer that
// captures the most recent log lines of an operation (a sync run, for
// example) so they can be reported alongside its progress.
package logging
