package types

// IssueKind classifies a store integrity problem.
type IssueKind string

const (
	IssueOrphan           IssueKind = "orphan"
	IssueCycle            IssueKind = "cycle"
	IssueIndexMissing     IssueKind = "index-missing"
	IssueIndexStale       IssueKind = "index-stale"
	IssueEmptyReaction    IssueKind = "empty-reaction"
	IssueDuplicateReactor IssueKind = "duplicate-reactor"
)

// Issue describes one integrity problem found in a store.
type Issue struct {
	Kind      IssueKind `json:"kind"`
	MessageID string    `json:"message_id,omitempty"`
	Key       string    `json:"key,omitempty"`
	Detail    string    `json:"detail"`
}
