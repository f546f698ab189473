package testutil

// FixedRunIDGenerator returns the same run id every time, so recorded runs
// in golden output are byte-identical between test executions.
//
// Unlike engine.FixedGenerator, which walks a list, this generator never
// changes its answer.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator returning id.
// An empty id yields "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
