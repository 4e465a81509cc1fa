package provision

import (
	"fmt"
	"strings"
)

// Item outcomes.
const (
	OutcomeCreated = "created"
	OutcomeDeleted = "deleted"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type ItemReport struct {
	Key     string `json:"key"` // login, or "Firstname Surname" before one exists
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// BatchReport summarizes one orchestration run.
// Invariant: Attempted == Succeeded + Failed + Skipped.
type BatchReport struct {
	Attempted int          `json:"attempted"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Items     []ItemReport `json:"per_item"`
}

func (r *BatchReport) success(key, outcome, detail string) {
	r.Attempted++
	r.Succeeded++
	r.Items = append(r.Items, ItemReport{Key: key, Outcome: outcome, Detail: detail})
}

func (r *BatchReport) failure(key, detail string) {
	r.Attempted++
	r.Failed++
	r.Items = append(r.Items, ItemReport{Key: key, Outcome: OutcomeFailed, Detail: detail})
}

func (r *BatchReport) skip(key, detail string) {
	r.Attempted++
	r.Skipped++
	r.Items = append(r.Items, ItemReport{Key: key, Outcome: OutcomeSkipped, Detail: detail})
}

// Summary renders the report as plain text for logs and report emails.
func (r *BatchReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "attempted: %d, succeeded: %d, failed: %d, skipped: %d\n",
		r.Attempted, r.Succeeded, r.Failed, r.Skipped)
	for _, item := range r.Items {
		fmt.Fprintf(&b, "- %s: %s", item.Key, item.Outcome)
		if item.Detail != "" {
			fmt.Fprintf(&b, " (%s)", item.Detail)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
