// Package startup handles startup checks and startup/shutdown logging for
// the serve command.
//
// # Directory Setup
//
// [PrepareDirectories] creates the data, cache and log directories. The data
// directory must be writable because it holds the catalog. Library roots are
// checked but never created.
//
// # External Tools
//
// [CheckTools] runs ffmpeg and ffprobe with -version. Neither is required:
// without ffprobe no technical metadata is recorded, and without ffmpeg every
// poster is a placeholder.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogConfig]: Banner, system information and effective configuration
//   - [LogDatabaseInit]: Catalog open timing and search mode
//   - [LogIndexerInit]: Schedule and watcher state
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	startup.LogConfig(cfg, path, exists)
//	if err := startup.PrepareDirectories(cfg); err != nil {
//	    logging.Fatal("%v", err)
//	}
//	ffmpeg, ffprobe := cfg.Tools()
//	startup.CheckTools(ctx, ffmpeg, ffprobe)
//	...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Listen:          cfg.HTTP.Listen,
//	    StartupDuration: time.Since(start),
//	})
package startup
