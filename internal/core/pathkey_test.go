package core

import (
	"testing"

	"github.com/adamavenir/threadchat/internal/types"
)

func TestPathKeyRoundTrip(t *testing.T) {
	cases := []types.Location{
		types.FileLocation("notes/a.md"),
		types.FolderLocation("notes"),
		types.FolderLocation("/"),
		types.FileLocation("odd:name.md"),
	}
	for _, loc := range cases {
		key := PathKey(loc)
		got, ok := ParsePathKey(key)
		if !ok {
			t.Fatalf("expected %q to parse", key)
		}
		if got != loc {
			t.Fatalf("expected %+v, got %+v", loc, got)
		}
	}
}

func TestPathKeyDistinguishesKinds(t *testing.T) {
	if PathKey(types.FileLocation("x")) == PathKey(types.FolderLocation("x")) {
		t.Fatalf("file and folder keys must differ")
	}
	if got := PathKey(types.FileLocation("a.md")); got != "file:a.md" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestParsePathKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "no-colon", "note:a.md"} {
		if _, ok := ParsePathKey(key); ok {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestNormalizeVaultPath(t *testing.T) {
	cases := map[string]string{
		"notes/a.md":     "notes/a.md",
		"./notes/a.md":   "notes/a.md",
		"/notes/":        "notes",
		`notes\sub\b.md`: "notes/sub/b.md",
		"/":              "",
		"  a.md ":        "a.md",
	}
	for in, want := range cases {
		if got := NormalizeVaultPath(in); got != want {
			t.Fatalf("NormalizeVaultPath(%q) = %q, want %q", in, got, want)
		}
	}
}
