package drafts

import "github.com/google/uuid"

// scope owns every draft created during a single produce run. Nested runs
// form a strict stack per producer; the cooperative single-threaded contract
// makes the plain pointer safe.
type scope struct {
	parent   *scope
	producer *Producer
	drafts   []*Draft

	// canAutoFreeze is cleared when finalization meets a draft owned by a
	// different scope; freezing then would race the owning run.
	canAutoFreeze bool
	unfinalized   int

	patches  Patches
	inverse  Patches
	listener PatchListener

	runID string
}

func (p *Producer) enterScope() *scope {
	sc := &scope{
		parent:        p.current,
		producer:      p,
		canAutoFreeze: true,
		runID:         uuid.NewString(),
	}
	p.current = sc
	return sc
}

// leaveScope pops sc if it is the top of the stack.
func (p *Producer) leaveScope(sc *scope) {
	if p.current == sc {
		p.current = sc.parent
	}
}

// revokeScope pops sc and permanently invalidates every draft it owns.
func (p *Producer) revokeScope(sc *scope) {
	p.leaveScope(sc)
	for _, d := range sc.drafts {
		d.s.revoked = true
	}
}

func (sc *scope) usePatches(listener PatchListener) {
	if listener == nil {
		return
	}
	sc.listener = listener
	sc.patches = Patches{}
	sc.inverse = Patches{}
}

func (sc *scope) trackingPatches() bool {
	return sc != nil && sc.listener != nil
}
