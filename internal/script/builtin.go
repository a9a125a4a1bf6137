package script

import (
	"fmt"
	"strings"
)

// Kind names one of the built-in bot programs.
type Kind int

const (
	Pusher Kind = iota
	Kamikaze
	Shy
	Hunter
)

var kindNames = [...]string{"Pusher", "Kamikaze", "Shy", "Hunter"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every built-in in roster order.
func Kinds() []Kind { return []Kind{Pusher, Kamikaze, Shy, Hunter} }

// ParseKind resolves a built-in by name, ignoring case.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i), true
		}
	}
	return 0, false
}

// Builtin compiles the program of a built-in bot.
func Builtin(k Kind) (Program, error) {
	b := NewBuilder(k.String())
	switch k {
	case Pusher:
		// Face and shoot anything seen, then keep advancing.
		b.Scan()
		b.If(OpIfSeen, 0, func() {
			b.TurnScan()
			b.AttackScan()
		})
		b.Move(1)
		b.Signal(1)
	case Kamikaze:
		b.Scan()
		b.If(OpIfSeen, 0, func() {
			b.TurnScan()
			b.AttackScan()
			b.Move(1)
		})
		b.Move(2)
		b.Signal(1)
	case Shy:
		b.Scan()
		b.IfElse(OpIfScanLE, 5, func() {
			b.TurnAway()
			b.Move(2)
			b.Signal(2)
		}, func() {
			b.Move(1)
		})
	case Hunter:
		b.Scan()
		b.If(OpIfDamaged, 0, func() {
			b.TurnAway()
			b.Move(1)
			b.Signal(2)
		})
		b.If(OpIfSeen, 0, func() {
			b.IfElse(OpIfCanAttack, 0, func() {
				b.TurnScan()
				b.AttackScan()
			}, func() {
				// Weapon cooling: keep a distance of more than 3.
				b.IfElse(OpIfScanLE, 3, func() {
					b.TurnAway()
					b.Move(1)
				}, func() {
					b.TurnScan()
					b.Move(1)
				})
			})
		})
		b.If(OpIfNearEdge, 1, func() {
			b.TurnRandom()
			b.Move(1)
		})
	default:
		return Program{}, fmt.Errorf("unknown bot kind %d", int(k))
	}
	return b.Finalize()
}

// BuiltinRoster compiles every built-in in roster order.
func BuiltinRoster() ([]Program, error) {
	out := make([]Program, 0, len(kindNames))
	for _, k := range Kinds() {
		p, err := Builtin(k)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
