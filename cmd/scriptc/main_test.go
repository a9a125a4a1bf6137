package main

import (
	"strings"
	"testing"

	"botarena.ai/internal/script"
)

func TestReport_FlagsOverBudgetPrograms(t *testing.T) {
	progs, err := script.BuiltinRoster()
	if err != nil {
		t.Fatalf("BuiltinRoster: %v", err)
	}

	var b strings.Builder
	if over := report(&b, progs, 1000, false); over != 0 {
		t.Fatalf("over=%d with a generous limit", over)
	}
	for _, p := range progs {
		if !strings.Contains(b.String(), p.Name()+" script cost ") {
			t.Fatalf("missing cost line for %s:\n%s", p.Name(), b.String())
		}
	}
	if strings.Contains(b.String(), "EXCEEDS LIMIT") {
		t.Fatalf("unexpected warning:\n%s", b.String())
	}

	b.Reset()
	if over := report(&b, progs, 0, false); over != len(progs) {
		t.Fatalf("over=%d want %d", over, len(progs))
	}
	if n := strings.Count(b.String(), "(EXCEEDS LIMIT)"); n != len(progs) {
		t.Fatalf("warnings=%d want %d", n, len(progs))
	}
}

func TestReport_Disassembly(t *testing.T) {
	b := script.NewBuilder("Tiny")
	b.Scan()
	b.AttackScan()
	p, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	var out strings.Builder
	report(&out, []script.Program{p}, 20, true)
	if !strings.Contains(out.String(), p.Disassemble()) {
		t.Fatalf("disassembly missing:\n%s", out.String())
	}
}
