package drafts

import (
	"context"
	"fmt"

	"github.com/goliatone/go-drafts/collections"
	"github.com/goliatone/go-drafts/pkg/activity"
)

// Producer is an engine instance: configuration plus the scope stack for
// runs executed through it. Producers are not safe for concurrent use; all
// drafts of a run must stay on the goroutine that created them.
type Producer struct {
	cfg     producerConfig
	current *scope
	frozen  map[frozenKey]struct{}
}

// NewProducer constructs an engine instance.
func NewProducer(opts ...Option) *Producer {
	return &Producer{cfg: applyProducerOptions(opts)}
}

// SetAutoFreeze toggles freezing of finalized values.
func (p *Producer) SetAutoFreeze(enabled bool) {
	p.cfg.autoFreeze = enabled
}

// AutoFreeze reports whether finalized values are frozen.
func (p *Producer) AutoFreeze() bool {
	return p.cfg.autoFreeze
}

// SetStrictShallowCopy configures the strict shallow-copy mode.
func (p *Producer) SetStrictShallowCopy(mode CopyMode) {
	p.cfg.copyMode = mode
}

// StrictShallowCopy returns the configured copy mode.
func (p *Producer) StrictShallowCopy() CopyMode {
	return p.cfg.copyMode
}

func (p *Producer) copyModeFor(any) CopyMode {
	return p.cfg.copyMode
}

// Produce runs recipe against a draft of base and returns the next value,
// sharing all unmodified substructure with base.
func (p *Producer) Produce(base any, recipe Recipe) (any, error) {
	return p.produce(base, recipe, nil)
}

// ProduceWithPatches runs recipe and additionally returns the forward and
// inverse patch lists describing the observed mutations.
func (p *Producer) ProduceWithPatches(base any, recipe Recipe) (any, Patches, Patches, error) {
	var forward, inverse Patches
	out, err := p.produce(base, recipe, func(fp, ip Patches) {
		forward, inverse = fp, ip
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return out, forward, inverse, nil
}

func (p *Producer) produce(base any, recipe Recipe, listener PatchListener) (any, error) {
	if recipe == nil {
		return nil, fmt.Errorf("%w: recipe must not be nil", ErrBadArgument)
	}
	if IsDraft(base) {
		return nil, fmt.Errorf("%w: base is already a draft", ErrBadArgument)
	}

	if IsDraftable(base) {
		sc := p.enterScope()
		sc.usePatches(listener)
		root := newDraftIn(p, sc, nil, base)
		result, err := recipe(root)
		if err != nil {
			p.revokeScope(sc)
			return nil, err
		}
		out, err := p.finishRun(sc, result)
		if err != nil {
			return nil, err
		}
		p.emitRunEvent("draft.produced", sc, len(sc.patches), len(sc.inverse))
		return out, nil
	}

	if isContainerShaped(base) {
		return nil, fmt.Errorf("%w: %T", ErrNotDraftable, base)
	}
	return p.produceOpaque(base, recipe, listener)
}

// produceOpaque runs the recipe directly against a non-draftable scalar. The
// recipe's result replaces the base.
func (p *Producer) produceOpaque(base any, recipe Recipe, listener PatchListener) (any, error) {
	sc := p.enterScope()
	sc.usePatches(listener)
	d := &Draft{s: &state{kind: KindOpaque, producer: p, scope: sc, base: base}}
	d.s.self = d

	result, err := recipe(d)
	p.revokeScope(sc)
	d.s.revoked = true
	if err != nil {
		return nil, err
	}

	out := result
	if out == nil {
		out = base
	}
	if IsDraftable(out) {
		p.maybeFreeze(sc, out, true)
	}
	if sc.trackingPatches() {
		replaceValue := out
		if replaceValue == Nothing {
			replaceValue = nil
		}
		if !collections.Identical(replaceValue, base) {
			sc.patches = append(sc.patches, Patch{Op: OpReplace, Path: []any{}, Value: replaceValue})
			sc.inverse = append(sc.inverse, Patch{Op: OpReplace, Path: []any{}, Value: base})
		}
		sc.listener(sc.patches, sc.inverse)
	}
	if out == Nothing {
		out = nil
	}
	p.emitRunEvent("draft.produced", sc, len(sc.patches), len(sc.inverse))
	return out, nil
}

// NewDraft creates a manual draft whose lifetime is not bounded by a recipe
// call. Finish it with FinishDraft.
func (p *Producer) NewDraft(base any) (*Draft, error) {
	if IsDraft(base) {
		return nil, fmt.Errorf("%w: base is already a draft", ErrBadArgument)
	}
	if !IsDraftable(base) {
		return nil, fmt.Errorf("%w: %T", ErrNotDraftable, base)
	}
	sc := p.enterScope()
	d := newDraftIn(p, sc, nil, base)
	d.s.manual = true
	p.leaveScope(sc)
	return d, nil
}

// FinishDraft finalizes a manual draft, optionally emitting patches to
// listener, and revokes it.
func (p *Producer) FinishDraft(d *Draft, listener PatchListener) (any, error) {
	if d == nil || d.s == nil || !d.s.manual {
		return nil, fmt.Errorf("%w: not a manual draft", ErrBadArgument)
	}
	if d.s.revoked {
		return nil, fmt.Errorf("%w: draft already finished", ErrDraftRevoked)
	}
	sc := d.s.scope
	sc.usePatches(listener)
	out, err := p.finishRun(sc, nil)
	if err != nil {
		return nil, err
	}
	p.emitRunEvent("draft.finished", sc, len(sc.patches), len(sc.inverse))
	return out, nil
}

func (p *Producer) emitRunEvent(verb string, sc *scope, patchCount, inverseCount int) {
	if !p.cfg.activityHooks.Enabled() {
		return
	}
	input := activity.DraftEventInput{
		PatchCount:   patchCount,
		InverseCount: inverseCount,
	}
	if sc != nil {
		input.RunID = sc.runID
	}
	_ = p.cfg.activityHooks.Notify(context.Background(), activity.BuildDraftEvent(verb, input))
}

var std = NewProducer()

// Produce runs recipe against base using the default producer.
func Produce(base any, recipe Recipe) (any, error) {
	return std.Produce(base, recipe)
}

// ProduceWithPatches runs recipe using the default producer and returns the
// forward and inverse patches.
func ProduceWithPatches(base any, recipe Recipe) (any, Patches, Patches, error) {
	return std.ProduceWithPatches(base, recipe)
}

// Apply replays patches against base using the default producer.
func Apply(base any, patches Patches) (any, error) {
	return std.Apply(base, patches)
}

// NewDraft creates a manual draft on the default producer.
func NewDraft(base any) (*Draft, error) {
	return std.NewDraft(base)
}

// FinishDraft finalizes a manual draft created on the default producer.
func FinishDraft(d *Draft, listener PatchListener) (any, error) {
	return std.FinishDraft(d, listener)
}

// SetAutoFreeze configures the default producer's freeze behaviour.
func SetAutoFreeze(enabled bool) {
	std.SetAutoFreeze(enabled)
}

// SetStrictShallowCopy configures the default producer's copy mode.
func SetStrictShallowCopy(mode CopyMode) {
	std.SetStrictShallowCopy(mode)
}
