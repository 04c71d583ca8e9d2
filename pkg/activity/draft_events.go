package activity

import (
	"strings"
	"time"
)

// DraftEventInput describes the common fields for draft lifecycle events.
type DraftEventInput struct {
	RunID        string
	ActorID      string
	UserID       string
	TenantID     string
	ObjectID     string
	Channel      string
	Recipients   []string
	Metadata     map[string]any
	PatchCount   int
	InverseCount int
	OccurredAt   time.Time
}

// BuildDraftProducedEvent constructs a normalized event for a completed run.
func BuildDraftProducedEvent(input DraftEventInput) Event {
	return BuildDraftEvent("draft.produced", input)
}

// BuildDraftFinishedEvent constructs a normalized event for a finished
// manual draft.
func BuildDraftFinishedEvent(input DraftEventInput) Event {
	return BuildDraftEvent("draft.finished", input)
}

// BuildPatchesAppliedEvent constructs a normalized event for patch replay.
func BuildPatchesAppliedEvent(input DraftEventInput) Event {
	return BuildDraftEvent("patches.applied", input)
}

// BuildDraftEvent assembles an event for verb from the shared input fields.
func BuildDraftEvent(verb string, input DraftEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.RunID != "" {
		metadata = ensureMetadata(metadata)
		metadata["run_id"] = input.RunID
	}
	if input.PatchCount > 0 || input.InverseCount > 0 {
		metadata = ensureMetadata(metadata)
		metadata["patch_count"] = input.PatchCount
		metadata["inverse_count"] = input.InverseCount
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.RunID)
	}
	if objectID == "" {
		objectID = "draft"
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: "draft",
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
