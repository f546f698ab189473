package ir

// Version constants for the persisted record format and engine.
const (
	// RecordVersion is the run record schema version.
	RecordVersion = "1"

	// EngineVersion is the pulse engine version. It is folded into result
	// keys so cached answers are invalidated when propagation semantics change.
	EngineVersion = "0.3.0"
)
