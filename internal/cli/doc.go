// Package cli builds the reelshelf Cobra command tree.
//
// Every subcommand shares a commandContext that loads the configuration once,
// applies the log level, and opens the catalog read-only or writable as the
// command needs. Read-only commands work while a scan or the server holds the
// write lock. Commands that only scaffold files or print build information
// carry the skipConfigLoad annotation so a broken config cannot block them.
//
// Output is a rounded go-pretty table by default; --json switches every
// command to indented JSON.
package cli
