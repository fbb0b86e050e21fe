// Package models defines the values exchanged between the platform API,
// the polling loops and the terminal UI: the login challenge, the login
// state machine, poll results and room snapshots.
package models
