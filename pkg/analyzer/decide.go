package analyzer

// Database is the classification label.
type Database string

const (
	Relational Database = "relational"
	Document   Database = "document-oriented"
)

// Reasons reported with a decision.
const (
	ReasonRelational   = "Flat array of objects with consistent keys and shallow nesting"
	ReasonNested       = "Nested or variable structure detected"
	ReasonInconsistent = "Inconsistent keys / single object or mixed types"
	ReasonEmpty        = "No records in sample"
)

// Decision thresholds.
const (
	// ConsistentKeyRatio is the ratio at which a key counts as consistent.
	ConsistentKeyRatio = 0.8
	// MaxRelationalDepth is the deepest nesting still stored as rows.
	MaxRelationalDepth = 1
)

// Signals are the inputs to Decide.
type Signals struct {
	Shape          Shape
	SampleSize     int
	MaxDepth       int
	KeyConsistency *KeyConsistency
}

// Decision is a classification plus its justification.
type Decision struct {
	Database Database
	Reason   string
}

// Decide classifies a sample. Relational requires a literal top-level array,
// more than one record, depth at most 1 and enough consistent keys. When it
// fails, depth is reported before inconsistency.
func Decide(s Signals) Decision {
	deep := s.MaxDepth > MaxRelationalDepth
	if s.Shape == ShapeArray && s.SampleSize > 1 && !deep && consistentEnough(s.KeyConsistency) {
		return Decision{Database: Relational, Reason: ReasonRelational}
	}

	switch {
	case s.SampleSize == 0:
		return Decision{Database: Document, Reason: ReasonEmpty}
	case deep:
		return Decision{Database: Document, Reason: ReasonNested}
	default:
		return Decision{Database: Document, Reason: ReasonInconsistent}
	}
}

// consistentEnough reports whether at least max(1, ceil(0.6*keys)) keys
// appear in 80% or more of the sample.
func consistentEnough(kc *KeyConsistency) bool {
	if kc == nil {
		return false
	}
	majority := 0
	for pair := kc.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value >= ConsistentKeyRatio {
			majority++
		}
	}
	return majority >= requiredConsistentKeys(kc.Len())
}

// requiredConsistentKeys is max(1, ceil(0.6*n)) computed on integers so that
// products like 0.6*10 cannot round up past the boundary.
func requiredConsistentKeys(n int) int {
	return max(1, (3*n+4)/5)
}
