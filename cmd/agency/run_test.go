package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/agency/store"
	"go.uber.org/zap"
)

const script = `
seed:
  a: 1
steps:
- apply: [[{/a: {op: increment}, /b/c: x}]]
- apply: [[{/a: 0}, {/a: {oldEmpty: true}}]]
- read: [[/a, /b], /z]
`

func TestRunScript(t *testing.T) {
	parsed, err := parseScript([]byte(script))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	cfg := &RunConfig{MainConfig: &MainConfig{}, Render: true, Diff: true}
	var out bytes.Buffer

	if err := runScript(cfg, &out, store.New(store.Config{Logger: zap.NewNop()}), parsed); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	expected := strings.Join([]string{
		"# 0 apply",
		"[true]",
		"-   a : 1",
		"+   a : 2",
		"+   b :",
		"+     c : \"x\"",
		"/ :",
		"  a : 2",
		"  b :",
		"    c : \"x\"",
		"# 1 apply",
		"[false]",
		"/ :",
		"  a : 2",
		"  b :",
		"    c : \"x\"",
		"# 2 read",
		`[[{"path":"/a","value":2},{"path":"/b","value":{"c":"x"}}],[{"path":"/z","notFound":true}]]`,
		"/ :",
		"  a : 2",
		"  b :",
		"    c : \"x\"",
		"",
	}, "\n")

	if diff := cmp.Diff(expected, out.String()); diff != "" {
		t.Fatalf(diff)
	}
}

func TestParseScriptRejectsAmbiguousSteps(t *testing.T) {
	if _, err := parseScript([]byte("steps:\n- apply: [[{/a: 1}]]\n  read: [/a]\n")); err == nil {
		t.Fatalf("expected a step with both apply and read to be rejected")
	}

	if _, err := parseScript([]byte("steps:\n- {}\n")); err == nil {
		t.Fatalf("expected an empty step to be rejected")
	}
}

func TestRunScriptPatch(t *testing.T) {
	parsed, err := parseScript([]byte(`
seed: {a: 1, b: {c: 2}}
steps:
- apply: [[{/a: 2, /b/c: {op: delete}}]]
- apply: [[{/a: 3}, {/a: 1}]]
`))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	cfg := &RunConfig{MainConfig: &MainConfig{}, Patch: true}
	var out bytes.Buffer

	if err := runScript(cfg, &out, store.New(store.Config{Logger: zap.NewNop()}), parsed); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	expected := strings.Join([]string{
		"# 0 apply",
		"[true]",
		`patch: {"a":2,"b":{"c":null}}`,
		"# 1 apply",
		"[false]",
		"patch: {}",
		"",
	}, "\n")

	if diff := cmp.Diff(expected, out.String()); diff != "" {
		t.Fatalf(diff)
	}
}
