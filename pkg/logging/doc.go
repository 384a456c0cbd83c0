// Package logging provides the structured logging setup for replex.
//
// It is a thin layer over Go's standard slog package that fixes one output
// and level for the whole process and tags every entry with a subsystem.
//
// # Log Levels
//   - **Debug**: request-level detail (endpoints, status codes, poll attempts)
//   - **Info**: lifecycle events (flow started, server selected)
//   - **Warn**: degraded operation (plaintext credential storage, stale server URL)
//   - **Error**: failures surfaced to the user
//
// # Usage
//
//	level, err := logging.ParseLevel(cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	logging.InitForCLI(level, os.Stderr)
//
//	logging.Info("Auth", "Starting authorization for %s", device.DeviceName)
//	logging.Error("Discovery", err, "Failed to fetch resources")
//
// Core packages accept a *slog.Logger through WithLogger options instead of
// calling this package directly. Use For to hand them a subsystem-tagged
// logger that shares the CLI output:
//
//	store, err := credstore.Open(cfg, credstore.WithLogger(logging.For("CredStore")))
//
// # Security
//
// Access tokens are never passed to the logger. Credential lifecycle events
// are logged with a "SECURITY_AUDIT:" message prefix and an "event"
// attribute so they can be filtered by log aggregation.
package logging
