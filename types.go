package drafts

import (
	"github.com/goliatone/go-drafts/pkg/activity"
)

// Kind classifies a value for drafting purposes.
type Kind int

const (
	// KindOpaque marks pass-through values that are never drafted or copied.
	KindOpaque Kind = iota
	// KindRecord marks string-keyed records: map[string]any or tagged structs.
	KindRecord
	// KindSequence marks dense ordered lists ([]any).
	KindSequence
	// KindMap marks insertion-ordered keyed maps (*collections.Map).
	KindMap
	// KindSet marks insertion-ordered unique sets (*collections.Set).
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	default:
		return "opaque"
	}
}

// Recipe mutates the supplied draft. A nil result keeps the draft's value,
// a non-nil result replaces it, and Nothing replaces it with nil. Returning
// an error aborts the run after the scope is revoked.
type Recipe func(d *Draft) (any, error)

// PatchListener receives the forward and inverse patch lists of a run.
type PatchListener func(patches, inverse Patches)

type nothingSentinel struct{}

func (nothingSentinel) String() string { return "drafts.Nothing" }

// Nothing is the sentinel a recipe returns to make the produced value nil.
// It is a package-level singleton shared by every producer in the process.
var Nothing any = nothingSentinel{}

// Draftable marks struct types that opt in to drafting. Only pointers to
// structs whose type implements this interface classify as records.
type Draftable interface {
	DraftableMark()
}

// ShallowCopier lets tagged struct types supply their own one-level copy
// when the strict copy mode is active.
type ShallowCopier interface {
	ShallowCopy() any
}

// CopyMode controls how struct records are shallow-copied.
type CopyMode int

const (
	// CopyModeClassOnly applies the strict field-by-field copy to tagged
	// struct instances only.
	CopyModeClassOnly CopyMode = iota
	// CopyModeAlways applies the strict copy to every record.
	CopyModeAlways
	// CopyModeNever copies records by plain value assignment.
	CopyModeNever
)

func (m CopyMode) String() string {
	switch m {
	case CopyModeAlways:
		return "always"
	case CopyModeNever:
		return "never"
	default:
		return "class_only"
	}
}

// Option configures a Producer.
type Option func(*producerConfig)

type producerConfig struct {
	autoFreeze    bool
	copyMode      CopyMode
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        RuleLogger
	activityHooks activity.Hooks
}

func applyProducerOptions(opts []Option) producerConfig {
	cfg := producerConfig{autoFreeze: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithAutoFreeze toggles freezing of finalized values. Enabled by default.
func WithAutoFreeze(enabled bool) Option {
	return func(cfg *producerConfig) {
		cfg.autoFreeze = enabled
	}
}

// WithCopyMode configures the strict shallow-copy mode.
func WithCopyMode(mode CopyMode) Option {
	return func(cfg *producerConfig) {
		cfg.copyMode = mode
	}
}

// WithEvaluator configures the rule evaluator used by ApplyRule.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *producerConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a compiled-rule cache on the producer.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *producerConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry configures custom rule functions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *producerConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithRuleLogger attaches a rule evaluation logger to the producer.
func WithRuleLogger(logger RuleLogger) Option {
	return func(cfg *producerConfig) {
		if logger == nil {
			cfg.logger = noopRuleLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithActivityHooks attaches lifecycle activity hooks to the producer.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *producerConfig) {
		cfg.activityHooks = normalized
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
