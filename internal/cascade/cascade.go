// Package cascade implements the ordered fallback pattern shared by the
// backend probe, the extraction tiers, and the metadata backends: try
// candidates in order until one produces a result.
package cascade

import (
	"errors"
	"log"
)

// ErrExhausted is returned when every candidate declined or failed
var ErrExhausted = errors.New("all candidates declined or failed")

// Result is the outcome of a single candidate attempt.
// Declined means the candidate has nothing to offer and the next one should be
// tried; it is not a failure. Err means the candidate tried and failed, which
// is logged distinctly but still falls through to the next candidate.
type Result[T any] struct {
	Value    T
	Declined bool
	Err      error
}

// Decline reports that a candidate has nothing to offer
func Decline[T any]() Result[T] {
	return Result[T]{Declined: true}
}

// Fail reports that a candidate tried and failed
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Ok reports a successful candidate result
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Candidate is one named strategy in an ordered fallback chain
type Candidate[T any] struct {
	Name    string
	Attempt func() Result[T]
}

// Attempt records what happened when a candidate was tried
type Attempt struct {
	Name     string `json:"name"`
	Declined bool   `json:"declined,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Run tries candidates in order and returns the first successful value along
// with the name of the winning candidate and the record of every attempt made.
// No candidate after the winner is attempted. If every candidate declines or
// fails, Run returns ErrExhausted.
func Run[T any](candidates []Candidate[T]) (T, string, []Attempt, error) {
	var attempts []Attempt

	for _, c := range candidates {
		res := c.Attempt()
		switch {
		case res.Err != nil:
			log.Printf("cascade: candidate %s failed: %v", c.Name, res.Err)
			attempts = append(attempts, Attempt{Name: c.Name, Error: res.Err.Error()})
		case res.Declined:
			log.Printf("cascade: candidate %s declined", c.Name)
			attempts = append(attempts, Attempt{Name: c.Name, Declined: true})
		default:
			attempts = append(attempts, Attempt{Name: c.Name})
			return res.Value, c.Name, attempts, nil
		}
	}

	var zero T
	return zero, "", attempts, ErrExhausted
}
