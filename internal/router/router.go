// Package router maps operation names to handlers. Every dispatched request
// passes through validation, timed execution, and metrics recording, and
// yields exactly one Outcome whether the handler succeeds, fails, or panics.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-media-preproc/internal/metrics"
	"github.com/tendant/simple-media-preproc/internal/schema"
	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

// HandlerFunc executes one operation. input has already passed schema
// validation. reqctx carries opaque caller metadata (trace ids and the like).
type HandlerFunc func(ctx context.Context, input json.RawMessage, reqctx map[string]string) (any, error)

// Registration declares one operation: its name, schemas, descriptive
// metadata for the capability card, and the handler itself.
type Registration struct {
	Name            string
	Description     string
	Tags            []string
	Examples        []string
	Idempotent      bool
	SideEffects     []string
	LatencyTargetMs int64
	InputSchema     *schema.Schema
	OutputSchema    *schema.Schema
	Handler         HandlerFunc
}

// Result is the normalized outcome of one dispatched request
type Result struct {
	OK      bool
	Output  any
	Latency time.Duration
	Cost    *float64
	ErrKind string
}

// CostedOutput lets a handler attach an operation-defined cost to its output
type CostedOutput struct {
	Output any
	Cost   float64
}

// Router dispatches requests to registered handlers
type Router struct {
	handlers  map[string]Registration
	order     []string
	collector *metrics.Collector
}

// New creates a router that records every call into collector
func New(collector *metrics.Collector) *Router {
	return &Router{
		handlers:  make(map[string]Registration),
		collector: collector,
	}
}

// Register adds a handler. Duplicate names are a configuration error caught
// at startup, not at request time.
func (r *Router) Register(reg Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("registration missing operation name")
	}
	if reg.Handler == nil {
		return fmt.Errorf("operation %s: registration missing handler", reg.Name)
	}
	if _, exists := r.handlers[reg.Name]; exists {
		return fmt.Errorf("operation %s: %w", reg.Name, ErrDuplicateRegistration)
	}
	r.handlers[reg.Name] = reg
	r.order = append(r.order, reg.Name)
	return nil
}

// Registrations returns all registered operations in registration order
func (r *Router) Registrations() []Registration {
	regs := make([]Registration, 0, len(r.order))
	for _, name := range r.order {
		regs = append(regs, r.handlers[name])
	}
	return regs
}

// Operations returns the registered operation names in registration order
func (r *Router) Operations() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Dispatch routes one request through validation and execution. It never
// returns an error: every failure mode is normalized into the Result.
func (r *Router) Dispatch(ctx context.Context, req mediaproc.Request) Result {
	start := time.Now()
	runID := uuid.New().String()

	reg, ok := r.handlers[req.Op]
	if !ok {
		log.Printf("[%s] Unsupported operation: %s", runID, req.Op)
		return r.complete(req.Op, start, Result{
			OK: false,
			Output: mediaproc.ErrorOutput{
				Error: fmt.Sprintf("unsupported operation: %s", req.Op),
				Kind:  mediaproc.KindUnsupportedOperation,
				Op:    req.Op,
				Detail: map[string]string{
					"available_operations": fmt.Sprintf("%v", r.order),
				},
			},
			ErrKind: mediaproc.KindUnsupportedOperation,
		})
	}

	// Validation rejects before any handler side effect can occur
	if err := reg.InputSchema.Validate(req.Input); err != nil {
		violation, _ := err.(*schema.Violation)
		out := mediaproc.ErrorOutput{
			Error: err.Error(),
			Kind:  mediaproc.KindValidationError,
			Op:    req.Op,
		}
		if violation != nil {
			out.Field = violation.Field
		}
		log.Printf("[%s] Validation failed for %s: %v", runID, req.Op, err)
		return r.complete(req.Op, start, Result{OK: false, Output: out, ErrKind: mediaproc.KindValidationError})
	}

	log.Printf("[%s] Executing %s", runID, req.Op)
	output, err := r.execute(ctx, reg, req, runID)
	if err != nil {
		herr := classify(err)
		out := mediaproc.ErrorOutput{
			Error:  herr.Message,
			Kind:   herr.Kind,
			Op:     req.Op,
			Field:  herr.Field,
			Detail: herr.Detail,
		}
		log.Printf("[%s] %s failed: %v", runID, req.Op, err)
		return r.complete(req.Op, start, Result{OK: false, Output: out, ErrKind: herr.Kind})
	}

	res := Result{OK: true, Output: output}
	if costed, ok := output.(CostedOutput); ok {
		res.Output = costed.Output
		cost := costed.Cost
		res.Cost = &cost
	}
	log.Printf("[%s] %s completed in %s", runID, req.Op, time.Since(start).Round(time.Millisecond))
	return r.complete(req.Op, start, res)
}

// execute wraps the handler call so a panic degrades to an error outcome
// instead of taking down the process.
func (r *Router) execute(ctx context.Context, reg Registration, req mediaproc.Request, runID string) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[%s] Handler panic in %s: %v", runID, req.Op, rec)
			err = NewError(mediaproc.KindInternalError, fmt.Sprintf("handler panic: %v", rec))
		}
	}()
	return reg.Handler(ctx, req.Input, req.Context)
}

func (r *Router) complete(op string, start time.Time, res Result) Result {
	res.Latency = time.Since(start)
	if res.Latency <= 0 {
		res.Latency = time.Nanosecond
	}
	if r.collector != nil {
		r.collector.Record(op, res.OK, res.ErrKind, res.Latency)
	}
	return res
}

func classify(err error) *Error {
	var herr *Error
	if errors.As(err, &herr) {
		return herr
	}
	return NewError(mediaproc.KindInternalError, err.Error())
}
