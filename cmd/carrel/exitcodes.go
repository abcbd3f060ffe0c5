package main

// Exit codes shared by all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no active library, bad paths)
	ExitDataError   = 3 // Data error (corrupt sidecar, failed validation)
)
