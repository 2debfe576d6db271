package ir

// Version constants for the IR schema and the engine.
const (
	// IRVersion is the canonical graph schema version.
	IRVersion = "1"

	// EngineVersion is the jetdag engine version recorded with stored runs.
	EngineVersion = "0.1.0"
)
