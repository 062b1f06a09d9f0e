package core

import (
	"context"
	"sort"
	"sync/atomic"
)

type guardKey struct{}

// withGuard marks ctx as belonging to a running operation. Every context the
// engine hands to a collaborator carries the mark.
func withGuard(ctx context.Context) context.Context {
	return context.WithValue(ctx, guardKey{}, struct{}{})
}

func isGuarded(ctx context.Context) bool {
	return ctx.Value(guardKey{}) != nil
}

// reentrancyGuard counts collaborator calls in flight on behalf of a running
// operation. A collaborator may call back with a context of its own, so any
// operation arriving while the count is positive is rejected as well.
type reentrancyGuard struct {
	callouts atomic.Int32
}

func (g *reentrancyGuard) enter(ctx context.Context) error {
	if isGuarded(ctx) || g.callouts.Load() > 0 {
		return ErrReentrantCall
	}
	return nil
}

// callout runs fn as a collaborator call. Calls made outside an operation,
// e.g. by read-only queries, are not counted.
func (g *reentrancyGuard) callout(ctx context.Context, fn func() error) error {
	if isGuarded(ctx) {
		g.callouts.Add(1)
		defer g.callouts.Add(-1)
	}
	return fn()
}

type phase uint8

// Collaborator calls run in phase order. Mint always comes last and push
// never precedes a pull or burn, so only pulls and burns need compensating.
const (
	phasePull phase = iota
	phaseBurn
	phasePush
	phaseMint
)

type interaction struct {
	name  string
	phase phase
	do    func(ctx context.Context) error
	undo  func(ctx context.Context) error
}

type interactions struct {
	steps []interaction
	done  int
}

func (is *interactions) add(it interaction) {
	is.steps = append(is.steps, it)
}

// run executes every step; on failure the completed steps are compensated
// before the error is returned.
func (is *interactions) run(ctx context.Context, log Log) error {
	sort.SliceStable(is.steps, func(i, j int) bool {
		return is.steps[i].phase < is.steps[j].phase
	})
	for _, it := range is.steps {
		if err := it.do(ctx); err != nil {
			log.Warn().Err(err).Str("step", it.name).Msg("collaborator call failed, compensating")
			is.compensate(ctx, log)
			return err
		}
		is.done++
	}
	return nil
}

func (is *interactions) compensate(ctx context.Context, log Log) {
	for i := is.done - 1; i >= 0; i-- {
		it := is.steps[i]
		if it.undo == nil {
			log.Error().Str("step", it.name).Msg("collaborator call cannot be undone")
			continue
		}
		if err := it.undo(ctx); err != nil {
			log.Error().Err(err).Str("step", it.name).Msg("compensation failed")
		}
	}
	is.done = 0
}
