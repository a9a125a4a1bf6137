package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"botarena.ai/internal/script"
	"botarena.ai/internal/sim/tuning"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scriptsDir = flag.String("scripts", "", "bot script directory (default: <configs>/scripts)")
		file       = flag.String("file", "", "compile a single script document")
		bots       = flag.String("bots", "", "comma separated built-in bots (overrides -scripts)")
		disasm     = flag.Bool("disasm", true, "print each program's disassembly")
		strict     = flag.Bool("strict", false, "exit non-zero when a program exceeds the cost limit")
	)
	flag.Parse()

	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fail("load tuning", err)
		}
		tune = tuning.Defaults()
	}

	var progs []script.Program
	if *file != "" {
		doc, err := script.LoadFile(*file)
		if err != nil {
			fail("load script", err)
		}
		p, err := doc.Compile()
		if err != nil {
			fail("compile", err)
		}
		progs = []script.Program{p}
	} else {
		sd := *scriptsDir
		if sd == "" {
			sd = filepath.Join(*configDir, "scripts")
		}
		progs, err = script.LoadRoster(sd, *bots)
		if err != nil {
			fail("load roster", err)
		}
	}

	over := report(os.Stdout, progs, tune.MaxScriptCost, *disasm)
	if *strict && over > 0 {
		os.Exit(1)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

// report prints the cost line of every program, the same line a match logs
// at start, and returns how many are over limit.
func report(w io.Writer, progs []script.Program, limit int, disasm bool) int {
	over := 0
	for _, p := range progs {
		line := fmt.Sprintf("%s script cost %d/%d", p.Name(), p.Cost(), limit)
		if p.OverBudget(limit) {
			line += " (EXCEEDS LIMIT)"
			over++
		}
		fmt.Fprintf(w, "%s words=%d\n", line, p.Len())
		if disasm {
			fmt.Fprint(w, p.Disassemble())
			fmt.Fprintln(w)
		}
	}
	return over
}
