// Package cli wires the bililive client together and implements its
// subcommands.
//
//	run     interactive terminal UI (default)
//	login   QR login printed to stdout, no UI
//	logout  delete the stored session
//	status  print one snapshot of the configured room
//
// NewApp opens the session database and builds the platform client and
// services from a validated config.Config; App.Run dispatches a command.
package cli
