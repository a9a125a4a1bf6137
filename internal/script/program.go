package script

// Program is a compiled bot script: a flat buffer of opcode words, each
// followed by its operand when the opcode has one, terminated by END.
// A Program is immutable; accessors never expose the backing slice.
type Program struct {
	name string
	code []int
	cost int
}

// NewProgram wraps raw code, for example code restored from a snapshot.
// The slice is copied. No validation is done: the VM stops on anything it
// cannot decode.
func NewProgram(name string, code []int, cost int) Program {
	c := make([]int, len(code))
	copy(c, code)
	return Program{name: name, code: c, cost: cost}
}

func (p Program) Name() string { return p.name }

// Cost is the accumulated compile-time cost.
func (p Program) Cost() int { return p.cost }

// OverBudget reports whether the cost exceeds limit. It is advisory only.
func (p Program) OverBudget(limit int) bool { return p.cost > limit }

func (p Program) Len() int { return len(p.code) }

// Word returns the word at index i.
func (p Program) Word(i int) (int, bool) {
	if i < 0 || i >= len(p.code) {
		return 0, false
	}
	return p.code[i], true
}

// Code returns a copy of the buffer.
func (p Program) Code() []int {
	c := make([]int, len(p.code))
	copy(c, p.code)
	return c
}

// Instr is one decoded instruction.
type Instr struct {
	Index   int
	Op      Opcode
	Operand int
	HasArg  bool
}

// Instructions decodes the buffer front to back. Decoding stops at the first
// unknown opcode or truncated operand.
func (p Program) Instructions() []Instr {
	var out []Instr
	for pc := 0; pc < len(p.code); {
		op := Opcode(p.code[pc])
		if !op.Known() {
			break
		}
		in := Instr{Index: pc, Op: op}
		pc++
		if op.Arity() == 1 {
			if pc >= len(p.code) {
				break
			}
			in.Operand = p.code[pc]
			in.HasArg = true
			pc++
		}
		out = append(out, in)
	}
	return out
}
