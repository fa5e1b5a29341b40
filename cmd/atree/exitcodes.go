package main

// Exit codes.
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (no workspace, invalid config.yml)
	ExitDataError         = 3 // Data error (malformed model, invalid value)
	ExitNotFound          = 4 // Node or assessment not found
	ExitUnsupportedFormat = 5 // Unknown source or output format
)
