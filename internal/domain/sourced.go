package domain

// Provenance records where a derived value came from.
type Provenance string

const (
	ProvenanceNone      Provenance = ""
	ProvenanceObserved  Provenance = "observed"
	ProvenanceEstimated Provenance = "estimated"
)

// Sourced wraps a value with its provenance so that consumers can tell
// directly observed chain data apart from heuristic fallbacks.
type Sourced[T any] struct {
	Value      T          `json:"value"`
	Provenance Provenance `json:"provenance,omitempty"`
}

// Observed wraps v as directly observed data.
func Observed[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Provenance: ProvenanceObserved}
}

// Estimated wraps v as a heuristic estimate.
func Estimated[T any](v T) Sourced[T] {
	return Sourced[T]{Value: v, Provenance: ProvenanceEstimated}
}

// IsSet reports whether any value is present.
func (s Sourced[T]) IsSet() bool { return s.Provenance != ProvenanceNone }

// IsObserved reports whether the value came from a directly observed event.
func (s Sourced[T]) IsObserved() bool { return s.Provenance == ProvenanceObserved }
