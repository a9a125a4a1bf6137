package script

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadDir_MatchesBuiltins(t *testing.T) {
	docs, err := LoadDir("../../configs/scripts")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(docs) != len(Kinds()) {
		t.Fatalf("docs=%d want %d", len(docs), len(Kinds()))
	}
	for i, k := range Kinds() {
		want, err := Builtin(k)
		if err != nil {
			t.Fatalf("Builtin(%v): %v", k, err)
		}
		got, err := docs[i].Compile()
		if err != nil {
			t.Fatalf("Compile(%s): %v", docs[i].Name, err)
		}
		if got.Name() != k.String() {
			t.Fatalf("doc %d name=%q want %q", i, got.Name(), k)
		}
		if !reflect.DeepEqual(got.Code(), want.Code()) || got.Cost() != want.Cost() {
			t.Fatalf("%v: doc program differs from builtin\n%s\n%s", k, got.Disassemble(), want.Disassemble())
		}
	}
}

func TestParseDoc_SchemaRejectsBadDocs(t *testing.T) {
	cases := map[string]string{
		"missing name":    "steps: []\n",
		"unknown op":      "name: X\nsteps:\n  - op: FLY\n",
		"bad direction":   "name: X\nsteps:\n  - {op: TURN, dir: UP}\n",
		"negative arg":    "name: X\nsteps:\n  - {op: MOVE, arg: -1}\n",
		"if without then": "name: X\nsteps:\n  - if: SEEN\n",
		"extra field":     "name: X\nsteps:\n  - {op: SCAN, speed: 3}\n",
	}
	for name, src := range cases {
		if _, err := ParseDoc(name, []byte(src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDocCompile_DirectionOperands(t *testing.T) {
	d, err := ParseDoc("dirs", []byte(`
name: Sniper
steps:
  - if: ENEMY
    dir: NE
    then:
      - {op: ATTACK, dir: NE}
    else:
      - {op: TURN, dir: SW}
`))
	if err != nil {
		t.Fatalf("ParseDoc: %v", err)
	}
	p, err := d.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	listing := p.Disassemble()
	seen := map[string]string{}
	for _, line := range strings.Split(listing, "\n") {
		f := strings.Fields(line)
		if len(f) == 3 {
			seen[f[1]] = f[2]
		}
	}
	for op, arg := range map[string]string{"IF_ENEMY": "NE", "ATTACK": "NE", "TURN": "SW"} {
		if seen[op] != arg {
			t.Fatalf("listing: %s operand=%q want %q:\n%s", op, seen[op], arg, listing)
		}
	}
}

func TestDocCompile_TurnNeedsDirection(t *testing.T) {
	d := Doc{Name: "X", Steps: []Step{{Op: "TURN"}}}
	if _, err := d.Compile(); err == nil {
		t.Fatalf("expected error for TURN without dir")
	}
}
