// Package cli provides the interactive cookiecutter command-line client.
//
// The App resolves the session at startup (running the password reset
// prompt for a recovery link), hydrates the workspace and then drives a
// REPL over the workspace, the editor and the sign-in flow. Generations run
// in the background; the prompt shows a busy marker while one is in flight.
//
// Uploads made while signed out are parked and replayed once sign-in
// completes, whether it comes from the login command or from the preview
// server's auth callback.
package cli
