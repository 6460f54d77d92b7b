package autofill

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/retry"
)

// Candidate is a stored diagram offered for a name lookup. Data is the
// diagram as stored, in whatever finger encoding it was saved with.
type Candidate struct {
	ID    int64
	Order int
	Title string
	Data  json.RawMessage
}

// Source is the backend the resolver searches.
type Source interface {
	// ListForItem returns every diagram saved for the item.
	ListForItem(ctx context.Context, itemID string) ([]Candidate, error)
	// SearchCommon returns common-chord diagrams matching name, best first.
	SearchCommon(ctx context.Context, name string) ([]Candidate, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPolicy sets the retry policy for backend calls.
func WithPolicy(p retry.Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithSleep replaces the backoff wait, for tests.
func WithSleep(fn retry.SleepFunc) Option {
	return func(r *Resolver) { r.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver looks up diagrams by chord name. It is safe for concurrent use.
type Resolver struct {
	source Source
	policy retry.Policy
	sleep  retry.SleepFunc
	logger *slog.Logger

	inFlight atomic.Int32
}

// New returns a Resolver over source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		policy: retry.DefaultPolicy,
		sleep:  retry.Sleep,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loading reports whether any Resolve call is in progress.
func (r *Resolver) Loading() bool { return r.inFlight.Load() > 0 }

// Resolve returns the diagram for name within itemID. Failures are always a
// *LookupError.
func (r *Resolver) Resolve(ctx context.Context, itemID, name string) (diagram.Diagram, error) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	key := diagram.NameKey(name)
	if key == "" {
		return diagram.Diagram{}, &LookupError{Code: ErrCodeNotFound, Name: name}
	}
	log := r.logger.With("item_id", itemID, "name", name)

	var saved []Candidate
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		saved, err = r.source.ListForItem(ctx, itemID)
		return err
	})
	if err != nil {
		return diagram.Diagram{}, r.failure(name, err)
	}

	chosen, ok := pickSaved(saved, key)
	if ok {
		log.Debug("autofill matched saved diagram", "id", chosen.ID, "order", chosen.Order)
	} else {
		var common []Candidate
		err := r.call(ctx, func(ctx context.Context) error {
			var err error
			common, err = r.source.SearchCommon(ctx, name)
			return err
		})
		if err != nil {
			return diagram.Diagram{}, r.failure(name, err)
		}
		if len(common) == 0 {
			return diagram.Diagram{}, &LookupError{Code: ErrCodeNotFound, Name: name}
		}
		chosen = common[0]
		log.Debug("autofill matched common chord", "id", chosen.ID)
	}

	d, dropped, err := diagram.Decode(chosen.Data)
	if err != nil {
		return diagram.Diagram{}, &LookupError{Code: ErrCodeInvalidData, Name: name, Err: err}
	}
	for _, de := range dropped {
		log.Warn("dropped stored finger", "id", chosen.ID, "error", de)
	}
	if d.Title == "" {
		d = d.WithTitle(chosen.Title)
	}
	return d, nil
}

func (r *Resolver) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, r.policy, r.sleep, r.logger, fn)
}

func (r *Resolver) failure(name string, err error) error {
	code := ErrCodeBackend
	if retry.IsRateLimited(err) {
		code = ErrCodeRateLimited
	}
	return &LookupError{Code: code, Name: name, Err: err}
}

// pickSaved returns the most recent candidate whose title matches key: the
// highest Order, then the highest ID.
func pickSaved(cands []Candidate, key string) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range cands {
		if diagram.NameKey(c.Title) != key {
			continue
		}
		if !found || c.Order > best.Order || (c.Order == best.Order && c.ID > best.ID) {
			best = c
			found = true
		}
	}
	return best, found
}
