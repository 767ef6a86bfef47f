package domain

import "reflect"

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep *Step             `json:"current_step,omitempty"`
	Submission  *SubmissionStatus `json:"submission,omitempty"`
	Submitted   *bool             `json:"submitted,omitempty"`

	// Fields contains only changed text/boolean fields with their new value.
	Fields map[string]any `json:"fields,omitempty"`

	// Errors is the full replacement mapping whenever it changed.
	Errors FieldErrors `json:"errors,omitempty"`

	Documents *DocumentDelta `json:"documents,omitempty"`
}

// DocumentDelta lists added and removed document ids.
type DocumentDelta struct {
	Added   []DocumentRef `json:"added,omitempty"`
	Removed []string      `json:"removed,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}
	if oldSnap == nil {
		oldSnap = &Snapshot{CurrentStep: -1, Data: FormData{}}
	}

	diff := &SnapshotDiff{SessionID: newSnap.SessionID}
	changed := false

	if oldSnap.CurrentStep != newSnap.CurrentStep {
		step := newSnap.CurrentStep
		diff.CurrentStep = &step
		changed = true
	}
	if oldSnap.Submission != newSnap.Submission {
		status := newSnap.Submission
		diff.Submission = &status
		changed = true
	}
	if oldSnap.Submitted != newSnap.Submitted {
		submitted := newSnap.Submitted
		diff.Submitted = &submitted
		changed = true
	}

	for _, key := range append(append([]string(nil), TextFields...), FieldTermsAccepted) {
		oldVal, _ := oldSnap.Data.Get(key)
		newVal, _ := newSnap.Data.Get(key)
		if !reflect.DeepEqual(oldVal, newVal) {
			if diff.Fields == nil {
				diff.Fields = make(map[string]any)
			}
			diff.Fields[key] = newVal
			changed = true
		}
	}

	if !reflect.DeepEqual(normalizeErrors(oldSnap.Errors), normalizeErrors(newSnap.Errors)) {
		diff.Errors = newSnap.Errors.Clone()
		changed = true
	}

	if delta := diffDocuments(oldSnap.Data.Documents, newSnap.Data.Documents); delta != nil {
		diff.Documents = delta
		changed = true
	}

	if !changed {
		return nil
	}
	return diff
}

func normalizeErrors(e FieldErrors) FieldErrors {
	if len(e) == 0 {
		return nil
	}
	return e
}

func diffDocuments(oldDocs, newDocs []Document) *DocumentDelta {
	oldIDs := make(map[string]bool, len(oldDocs))
	for _, d := range oldDocs {
		oldIDs[d.ID] = true
	}
	newIDs := make(map[string]bool, len(newDocs))
	delta := &DocumentDelta{}
	for _, d := range newDocs {
		newIDs[d.ID] = true
		if !oldIDs[d.ID] {
			delta.Added = append(delta.Added, d.Ref())
		}
	}
	for _, d := range oldDocs {
		if !newIDs[d.ID] {
			delta.Removed = append(delta.Removed, d.ID)
		}
	}
	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return nil
	}
	return delta
}
