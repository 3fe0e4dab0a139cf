// Package handlers turns a prepared submission into a content record. There
// is one Handler per content kind; Detect picks the kind when it is not
// given.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/deps"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

var (
	// ErrClassificationAmbiguous means the kind of a submission could not
	// be determined from its files.
	ErrClassificationAmbiguous = errors.New("cannot determine content type")
	// ErrNoHandler means no handler is registered for a kind.
	ErrNoHandler = errors.New("no handler for content type")
)

// Result is a handler's output. Warnings describe data-quality problems
// that were worked around, such as a missing title.
type Result struct {
	Record   *content.Record
	Warnings []string
}

// Handler indexes a prepared submission of one content kind. current is
// the record previously stored for the same submission, or nil.
type Handler interface {
	Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error)

func (f HandlerFunc) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	return f(ctx, in, current)
}

// Env holds what handlers share for a batch. All fields are optional.
type Env struct {
	Resolver *deps.Resolver
	Authors  *content.AuthorNames
	Logger   ua.Logger
}

// Registry maps each kind to its handler.
type Registry struct {
	handlers map[content.Kind]Handler
}

// NewRegistry creates a Registry with the standard handler for every kind.
func NewRegistry(env Env) *Registry {
	if env.Logger == nil {
		env.Logger = ua.NewNopLogger()
	}
	base := &base{env: env}
	return &Registry{handlers: map[content.Kind]Handler{
		content.KindMap:     &MapHandler{base},
		content.KindMapPack: &MapPackHandler{base},
		content.KindSkin:    &SkinHandler{base},
		content.KindModel:   &ModelHandler{base},
		content.KindVoice:   &VoiceHandler{base},
		content.KindMutator: &MutatorHandler{base},
	}}
}

// Register replaces the handler for kind.
func (r *Registry) Register(kind content.Kind, h Handler) {
	r.handlers[kind] = h
}

// For returns the handler for kind.
func (r *Registry) For(kind content.Kind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return h, nil
}
