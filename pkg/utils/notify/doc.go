// Package notify writes formatted, typed messages for CLI users.
//
// Every message type has its own symbol and color: success (✔), error (✗),
// warning (⚠), info (ℹ), activity (►) and titles with a custom emoji.
// Colors are only emitted when the destination is a terminal.
package notify
