package script

import (
	"fmt"
	"os"
	"strings"
)

// LoadRoster compiles a match roster. A non-empty bots list picks built-ins
// by name (repeats allowed); otherwise every document under dir is compiled
// in file order, and a missing dir falls back to BuiltinRoster.
func LoadRoster(dir, bots string) ([]Program, error) {
	if strings.TrimSpace(bots) != "" {
		return builtinList(bots)
	}
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return CompileDir(dir)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return BuiltinRoster()
}

func builtinList(list string) ([]Program, error) {
	var out []Program
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, ok := ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown bot %q", name)
		}
		p, err := Builtin(k)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty bot list")
	}
	return out, nil
}

// CompileDir loads and compiles every document in dir.
func CompileDir(dir string) ([]Program, error) {
	docs, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no scripts in %s", dir)
	}
	out := make([]Program, 0, len(docs))
	for _, d := range docs {
		p, err := d.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func Names(progs []Program) []string {
	out := make([]string, len(progs))
	for i, p := range progs {
		out[i] = p.Name()
	}
	return out
}
