// Package card builds the static self-description published for discovery by
// external orchestrators. The card is constructed once from the router's
// registration table and is read-only afterward; only the active-backend
// field reflects runtime state, refreshed lazily from the probe.
package card

import (
	"sync"

	"github.com/tendant/simple-media-preproc/internal/backend"
	"github.com/tendant/simple-media-preproc/internal/router"
	"github.com/tendant/simple-media-preproc/internal/schema"
)

// Card is the service capability descriptor
type Card struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Backend     BackendInfo    `json:"backend"`
	Functions   []FunctionCard `json:"functions"`
}

// BackendInfo describes the acceleration backend the probe selected
type BackendInfo struct {
	Active string `json:"active"`
	Info   string `json:"info"`
}

// FunctionCard describes one operation's contract
type FunctionCard struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Tags            []string       `json:"tags,omitempty"`
	Examples        []string       `json:"examples,omitempty"`
	Idempotent      bool           `json:"idempotent"`
	SideEffects     []string       `json:"side_effects"`
	LatencyTargetMs int64          `json:"latency_target_ms,omitempty"`
	InputSchema     *schema.Schema `json:"input_schema,omitempty"`
	OutputSchema    *schema.Schema `json:"output_schema,omitempty"`
}

// Builder assembles cards from a registration table and a backend selector
type Builder struct {
	name        string
	version     string
	description string
	tags        []string
	router      *router.Router
	selector    *backend.Selector

	once      sync.Once
	functions []FunctionCard
}

// NewBuilder binds the card to the router's registration table. The function
// list is materialized on first Build, after registration has finished, and
// is read-only from then on.
func NewBuilder(name, version, description string, tags []string, r *router.Router, selector *backend.Selector) *Builder {
	return &Builder{
		name:        name,
		version:     version,
		description: description,
		tags:        tags,
		router:      r,
		selector:    selector,
	}
}

// Build returns the card with the backend field refreshed from the probe.
// The backend reported here is the probe winner; each preview outcome reports
// separately which backend actually produced its pixels.
func (b *Builder) Build() Card {
	b.once.Do(func() {
		for _, reg := range b.router.Registrations() {
			sideEffects := reg.SideEffects
			if sideEffects == nil {
				sideEffects = []string{}
			}
			b.functions = append(b.functions, FunctionCard{
				Name:            reg.Name,
				Description:     reg.Description,
				Tags:            reg.Tags,
				Examples:        reg.Examples,
				Idempotent:      reg.Idempotent,
				SideEffects:     sideEffects,
				LatencyTargetMs: reg.LatencyTargetMs,
				InputSchema:     reg.InputSchema,
				OutputSchema:    reg.OutputSchema,
			})
		}
	})

	active := b.selector.Select()
	return Card{
		Name:        b.name,
		Version:     b.version,
		Description: b.description,
		Tags:        b.tags,
		Backend: BackendInfo{
			Active: string(active),
			Info:   active.Info(),
		},
		Functions: b.functions,
	}
}
