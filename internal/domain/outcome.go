package domain

// OutcomeKind tags how a stage produced its value.
type OutcomeKind string

const (
	// OutcomeOK means the stage completed against its remote collaborators.
	OutcomeOK OutcomeKind = "ok"
	// OutcomeFallback means a deterministic substitute value was produced.
	OutcomeFallback OutcomeKind = "fallback"
	// OutcomeFailed means no meaningful value could be produced.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the tagged result every pipeline stage returns instead of an
// error. Value is always usable; for OutcomeFailed it is the zero value.
type Outcome[T any] struct {
	Kind   OutcomeKind `json:"kind"`
	Value  T           `json:"value"`
	Reason string      `json:"reason,omitempty"`
}

// Ok wraps a genuine success.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeOK, Value: v}
}

// Fallback wraps a compensated failure together with its cause.
func Fallback[T any](v T, reason error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFallback, Value: v, Reason: reasonText(reason)}
}

// Failed records a stage that could not produce a value.
func Failed[T any](reason error) Outcome[T] {
	var zero T
	return Outcome[T]{Kind: OutcomeFailed, Value: zero, Reason: reasonText(reason)}
}

// Succeeded reports whether the value is a genuine success.
func (o Outcome[T]) Succeeded() bool {
	return o.Kind == OutcomeOK
}

func reasonText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
