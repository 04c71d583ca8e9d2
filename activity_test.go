package drafts

import (
	"testing"

	"github.com/goliatone/go-drafts/pkg/activity"
)

func TestProducerEmitsActivityEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	p := NewProducer(WithActivityHooks(activity.Hooks{capture, nil}))

	if _, err := p.Produce(map[string]any{"n": 1}, func(d *Draft) (any, error) {
		return nil, d.Set("n", 2)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one produced event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "draft.produced" || event.ObjectType != "draft" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if runID, ok := event.Metadata["run_id"].(string); !ok || runID == "" {
		t.Fatalf("expected a run id in metadata, got %v", event.Metadata)
	}

	d, err := p.NewDraft(map[string]any{"n": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Set("n", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.FinishDraft(d, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 2 || capture.Events[1].Verb != "draft.finished" {
		t.Fatalf("expected a finished event, got %+v", capture.Events)
	}
}

func TestProducerWithoutHooksEmitsNothing(t *testing.T) {
	p := NewProducer()
	if p.cfg.activityHooks.Enabled() {
		t.Fatalf("expected hooks to be disabled by default")
	}
}
