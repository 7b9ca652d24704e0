package command

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandVersion(t *testing.T) {
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd, "--version")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(output, "threadchat version test") {
		t.Fatalf("expected version output, got %q", output)
	}
}

func TestRootCommandHelp(t *testing.T) {
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(output, "threaded chat feed") {
		t.Fatalf("expected help output, got %q", output)
	}
}

func TestMissingVaultHint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := NewRootCmd("test")

	output, err := executeCommand(cmd, "--vault", t.TempDir(), "ls")
	if err == nil {
		t.Fatalf("expected error for directory without a vault marker")
	}
	if !strings.Contains(output, "threadchat init") {
		t.Fatalf("expected init hint, got %q", output)
	}
}
