package consts

import "time"

// LLM defaults
const (
	// DefaultModel is used when the config does not name a model
	DefaultModel = "gpt-4o-mini"
	// DefaultMaxTokens is the default maximum tokens for LLM responses
	DefaultMaxTokens = 4096
	// DefaultTemperature is the default sampling temperature
	DefaultTemperature = 1.0
)

// File operation limits
const (
	// MaxViewBytes caps how much of a file the view tool returns at once
	MaxViewBytes = 256 * 1024
)

// Timeouts for various operations
const (
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
	// Timeout2Minutes is a 2 minute timeout
	Timeout2Minutes = 2 * time.Minute
)

// Orchestration limits
const (
	// MaxModelRounds caps consecutive model round-trips within a single
	// advance cycle to stop runaway tool-call loops
	MaxModelRounds = 32
)
