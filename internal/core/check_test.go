package core

import (
	"testing"

	"github.com/adamavenir/threadchat/internal/types"
	"github.com/google/go-cmp/cmp"
)

func issueKinds(issues []types.Issue) map[types.IssueKind]int {
	kinds := map[types.IssueKind]int{}
	for _, issue := range issues {
		kinds[issue.Kind]++
	}
	return kinds
}

func TestCheckCleanStore(t *testing.T) {
	store := buildStore(
		fileMsg("m1", "a.md", 100),
		replyMsg("m2", "m1", "a.md", 200),
	)
	store = ToggleReaction(store, "m1", "👍", "user-1")
	if issues := Check(store); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestCheckReportsProblems(t *testing.T) {
	store := buildStore(
		fileMsg("m1", "a.md", 100),
		replyMsg("orphan", "gone", "a.md", 200),
		replyMsg("x", "y", "a.md", 300),
		replyMsg("y", "x", "a.md", 400),
	)
	bad := store.Messages["m1"]
	bad.Reactions = map[string][]string{"👍": {}, "🎉": {"u", "u"}}
	store.Messages["m1"] = bad
	store.Messages["unindexed"] = fileMsg("unindexed", "b.md", 500)
	store.PathIndex["file:c.md"] = []string{"ghost", "m1"}

	got := issueKinds(Check(store))
	want := map[types.IssueKind]int{
		types.IssueOrphan:           1,
		types.IssueCycle:            2,
		types.IssueIndexMissing:     1,
		types.IssueIndexStale:       2,
		types.IssueEmptyReaction:    1,
		types.IssueDuplicateReactor: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issue kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestReindexRepairsStore(t *testing.T) {
	store := buildStore(
		fileMsg("late", "a.md", 300),
		fileMsg("early", "a.md", 100),
	)
	msg := store.Messages["early"]
	msg.Reactions = map[string][]string{"👍": {"u", "u"}, "🎉": {}}
	store.Messages["early"] = msg
	store.Messages["unindexed"] = fileMsg("unindexed", "b.md", 200)
	store.PathIndex["file:c.md"] = []string{"ghost"}

	fixed := Reindex(store)

	want := map[string][]string{
		"file:a.md": {"early", "late"},
		"file:b.md": {"unindexed"},
	}
	if diff := cmp.Diff(want, fixed.PathIndex); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"👍": {"u"}}, fixed.Messages["early"].Reactions); diff != "" {
		t.Fatalf("reactions mismatch (-want +got):\n%s", diff)
	}
	if issues := Check(fixed); len(issues) != 0 {
		t.Fatalf("expected no issues after reindex, got %v", issues)
	}
}
