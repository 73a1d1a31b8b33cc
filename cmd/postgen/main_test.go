package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kailas-cloud/postgen/internal/version"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version.String() {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"serve", "--config", t.TempDir() + "/missing.yaml"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}
