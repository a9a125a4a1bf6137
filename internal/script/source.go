package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"botarena.ai/internal/sim/grid"
)

// Doc is a bot script written as data. Steps are compiled in order through a
// Builder, so a Doc produces exactly the program the equivalent Go code would.
type Doc struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is either an action (Op set) or a conditional (If set).
type Step struct {
	Op   string `yaml:"op,omitempty" json:"op,omitempty"`
	If   string `yaml:"if,omitempty" json:"if,omitempty"`
	Arg  int    `yaml:"arg,omitempty" json:"arg,omitempty"`
	Dir  string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Then []Step `yaml:"then,omitempty" json:"then,omitempty"`
	Else []Step `yaml:"else,omitempty" json:"else,omitempty"`
}

// ParseDoc validates raw YAML against the script schema and decodes it.
// source is only used in error messages.
func ParseDoc(source string, raw []byte) (Doc, error) {
	var d Doc
	if err := validateYAML(raw); err != nil {
		return d, fmt.Errorf("%s: %w", source, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("%s: %w", source, err)
	}
	return d, nil
}

func LoadFile(path string) (Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Doc{}, err
	}
	return ParseDoc(filepath.Base(path), raw)
}

// LoadDir loads every *.yaml document in dir, ordered by file name. The order
// is the roster order, so files are usually prefixed with a number.
func LoadDir(dir string) ([]Doc, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); strings.HasSuffix(n, ".yaml") || strings.HasSuffix(n, ".yml") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	docs := make([]Doc, 0, len(names))
	for _, n := range names {
		d, err := LoadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Compile lowers the document into a Program.
func (d Doc) Compile() (Program, error) {
	b := NewBuilder(d.Name)
	if err := compileSteps(b, d.Steps); err != nil {
		return Program{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	return b.Finalize()
}

func compileSteps(b *Builder, steps []Step) error {
	for i, s := range steps {
		if err := compileStep(b, s); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func compileStep(b *Builder, s Step) error {
	switch {
	case s.Op != "" && s.If != "":
		return fmt.Errorf("step has both op %q and if %q", s.Op, s.If)
	case s.Op != "":
		op, ok := ParseOpcode(s.Op)
		if !ok || op.IsCondition() || op.IsJump() || op == OpEnd {
			return fmt.Errorf("unknown action %q", s.Op)
		}
		arg, err := operand(op, s)
		if err != nil {
			return err
		}
		if op.Arity() == 1 {
			b.emit(op, arg)
		} else {
			b.emit(op)
		}
		return nil
	case s.If != "":
		cond, ok := ParseOpcode("IF_" + s.If)
		if !ok || !cond.IsCondition() {
			return fmt.Errorf("unknown condition %q", s.If)
		}
		arg, err := operand(cond, s)
		if err != nil {
			return err
		}
		blk := b.Begin(cond, arg)
		if err := compileSteps(b, s.Then); err != nil {
			return err
		}
		if len(s.Else) > 0 {
			blk.Else()
			if err := compileSteps(b, s.Else); err != nil {
				return err
			}
		}
		blk.End()
		return nil
	}
	return fmt.Errorf("empty step")
}

// operand resolves the immediate for op. Direction-taking opcodes read Dir,
// the rest read Arg.
func operand(op Opcode, s Step) (int, error) {
	switch op {
	case OpTurn, OpAttack, OpIfEnemy:
		d, ok := grid.ParseDirection(s.Dir)
		if !ok {
			return 0, fmt.Errorf("%v needs a direction, got %q", op, s.Dir)
		}
		return int(d), nil
	}
	if s.Dir != "" {
		return 0, fmt.Errorf("%v does not take a direction", op)
	}
	return s.Arg, nil
}
