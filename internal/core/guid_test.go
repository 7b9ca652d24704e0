package core

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateMessageID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := GenerateMessageID()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !strings.HasPrefix(id, "msg-") {
			t.Fatalf("expected msg- prefix, got %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateGUIDPrefix(t *testing.T) {
	id, err := GenerateGUID("test-")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(id, "test-") || strings.HasPrefix(id, "test--") {
		t.Fatalf("unexpected id %s", id)
	}
	bare, err := GenerateGUID("")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(bare) != 36 {
		t.Fatalf("expected bare uuid, got %s", bare)
	}
}

func TestShortID(t *testing.T) {
	id := "msg-0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	if got := ShortID(id, 6); got != "3f4a5b" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := ShortID("msg-abc", 10); got != "abc" {
		t.Fatalf("unexpected short id %q", got)
	}
	if got := ShortID(id, 0); got != "" {
		t.Fatalf("expected empty short id, got %q", got)
	}
}

func TestGetDisplayPrefixLength(t *testing.T) {
	if GetDisplayPrefixLength(10) != 6 || GetDisplayPrefixLength(1000) != 8 || GetDisplayPrefixLength(10000) != 10 {
		t.Fatalf("unexpected display lengths")
	}
}

func TestResolveMessageID(t *testing.T) {
	ids := []string{
		"msg-0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b",
		"msg-0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f9999",
		"m1",
	}

	cases := []struct {
		ref  string
		want string
	}{
		{"m1", "m1"},
		{"#m1", "m1"},
		{"3f4a5b", ids[0]},
		{"0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f9999", ids[1]},
		{ids[0], ids[0]},
		{"a5b", ids[0]},
		{"99", ids[1]},
	}
	for _, tc := range cases {
		got, err := ResolveMessageID(ids, tc.ref)
		if err != nil {
			t.Fatalf("resolve %q: %v", tc.ref, err)
		}
		if got != tc.want {
			t.Fatalf("resolve %q = %q, want %q", tc.ref, got, tc.want)
		}
	}

	if _, err := ResolveMessageID(ids, "zzzz"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := ResolveMessageID([]string{"msg-aaa1", "msg-bbb1"}, "1"); err == nil || errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestFindMessage(t *testing.T) {
	store := buildStore(
		fileMsg("msg-0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", "a.md", 1),
		fileMsg("msg-0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f9999", "a.md", 2),
	)

	msg, err := FindMessage(store, "#9999")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if msg.CreatedAt != 2 {
		t.Fatalf("expected second message, got %+v", msg)
	}
	if _, err := FindMessage(store, "abcdef"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
