package ir

// NOTE: These are store-layer types. Seq is assigned by the store on write.

// Run modes recorded in the run log.
const (
	ModeFixed           = "fixed"
	ModeFirstOccurrence = "first-occurrence"
	ModePeriod          = "period"
)

// RunRecord is one computed answer persisted to the run log.
type RunRecord struct {
	ID            string         `json:"id"`
	Seq           int64          `json:"seq"`
	ResultKey     string         `json:"result_key"`
	NetworkHash   string         `json:"network_hash"`
	Network       []NodeDecl     `json:"network"`
	Mode          string         `json:"mode"`
	Trigger       NodeID         `json:"trigger"`
	Presses       int64          `json:"presses"`
	Counts        Counts         `json:"counts"`
	Answer        int64          `json:"answer"`
	Periods       []PeriodRecord `json:"periods,omitempty"`
	EngineVersion string         `json:"engine_version"`
}

// PeriodRecord is the first-occurrence index measured for one target.
type PeriodRecord struct {
	Condition       Condition `json:"condition"`
	FirstOccurrence int64     `json:"first_occurrence"`
}
