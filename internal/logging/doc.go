// Package logging provides a simple leveled logging interface for the
// reelshelf catalog indexer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL or DEBUG environment
// variables and can be overridden at runtime from the config file with
// SetLevel. SetOutputFile mirrors output into a log file under the data
// directory.
package logging
