package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the arena rules and the operational knobs of a match.
type Tuning struct {
	BoardWidth     int `yaml:"board_width" json:"board_width"`
	BoardHeight    int `yaml:"board_height" json:"board_height"`
	MaxTurns       int `yaml:"max_turns" json:"max_turns"`
	StartHP        int `yaml:"start_hp" json:"start_hp"`
	MaxScriptCost  int `yaml:"max_script_cost" json:"max_script_cost"`
	AttackRange    int `yaml:"attack_range" json:"attack_range"`
	AttackCooldown int `yaml:"attack_cooldown" json:"attack_cooldown"`
	ScanRange      int `yaml:"scan_range" json:"scan_range"`
	VMStepLimit    int `yaml:"vm_step_limit" json:"vm_step_limit"`

	// Operational only; they never change outcomes.
	TurnRateHz         int `yaml:"turn_rate_hz" json:"turn_rate_hz"`
	SnapshotEveryTurns int `yaml:"snapshot_every_turns" json:"snapshot_every_turns"`
}

func Defaults() Tuning {
	return Tuning{
		BoardWidth:         12,
		BoardHeight:        12,
		MaxTurns:           40,
		StartHP:            5,
		MaxScriptCost:      20,
		AttackRange:        4,
		AttackCooldown:     2,
		ScanRange:          12,
		VMStepLimit:        4096,
		TurnRateHz:         2,
		SnapshotEveryTurns: 10,
	}
}

// ApplyDefaults fills every non-positive field from Defaults.
func (t *Tuning) ApplyDefaults() {
	d := Defaults()
	fill := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.BoardWidth, d.BoardWidth)
	fill(&t.BoardHeight, d.BoardHeight)
	fill(&t.MaxTurns, d.MaxTurns)
	fill(&t.StartHP, d.StartHP)
	fill(&t.MaxScriptCost, d.MaxScriptCost)
	fill(&t.AttackRange, d.AttackRange)
	fill(&t.AttackCooldown, d.AttackCooldown)
	fill(&t.ScanRange, d.ScanRange)
	fill(&t.VMStepLimit, d.VMStepLimit)
	fill(&t.TurnRateHz, d.TurnRateHz)
	if t.SnapshotEveryTurns < 0 {
		t.SnapshotEveryTurns = 0
	}
}

// Validate rejects boards that cannot be played on.
func (t Tuning) Validate() error {
	if t.BoardWidth > 26 {
		return fmt.Errorf("board_width %d: squares are named A..Z", t.BoardWidth)
	}
	if t.BoardWidth < 3 || t.BoardHeight < 3 {
		return fmt.Errorf("board %dx%d is smaller than 3x3", t.BoardWidth, t.BoardHeight)
	}
	return nil
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
