package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Balance holds the gameplay timing constants.
type Balance struct {
	TickPeriod     time.Duration `yaml:"tick_period"`
	PlayTimePeriod time.Duration `yaml:"play_time_period"`
	DriverPeriod   time.Duration `yaml:"driver_period"`
	ClickWindow    time.Duration `yaml:"click_window"`
	Golden         Golden        `yaml:"golden"`
	Threats        Threats       `yaml:"threats"`
}

// Golden tunes the golden cookie scheduler.
type Golden struct {
	MinSpawnDelay time.Duration `yaml:"min_spawn_delay"`
	MaxSpawnDelay time.Duration `yaml:"max_spawn_delay"`
	Lifetime      time.Duration `yaml:"lifetime"`
	Multiplier    float64       `yaml:"multiplier"`
	BonusSeconds  int           `yaml:"bonus_seconds"`
	WarningLead   time.Duration `yaml:"warning_lead"`
	PositionMin   float64       `yaml:"position_min"`
	PositionMax   float64       `yaml:"position_max"`
}

// Threats tunes the threat engine.
type Threats struct {
	PollPeriod        time.Duration `yaml:"poll_period"`
	HistoryLimit      int           `yaml:"history_limit"`
	SavedHistoryLimit int           `yaml:"saved_history_limit"`
}

// DefaultBalance returns the stock game tuning.
func DefaultBalance() Balance {
	return Balance{
		TickPeriod:     100 * time.Millisecond,
		PlayTimePeriod: time.Second,
		DriverPeriod:   25 * time.Millisecond,
		ClickWindow:    10 * time.Second,
		Golden: Golden{
			MinSpawnDelay: 60 * time.Second,
			MaxSpawnDelay: 180 * time.Second,
			Lifetime:      13 * time.Second,
			Multiplier:    7,
			BonusSeconds:  77,
			WarningLead:   3 * time.Second,
			PositionMin:   10,
			PositionMax:   90,
		},
		Threats: Threats{
			PollPeriod:        time.Second,
			HistoryLimit:      20,
			SavedHistoryLimit: 10,
		},
	}
}

// LoadBalance overlays a YAML file on the defaults. An empty path returns
// the defaults unchanged.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("decode balance file %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// Validate rejects tunings the scheduler cannot run.
func (b Balance) Validate() error {
	if b.TickPeriod <= 0 || b.PlayTimePeriod <= 0 || b.DriverPeriod <= 0 {
		return fmt.Errorf("tick, play time and driver periods must be positive")
	}
	if b.Golden.MinSpawnDelay <= 0 || b.Golden.MaxSpawnDelay < b.Golden.MinSpawnDelay {
		return fmt.Errorf("golden spawn delay range [%s, %s] is invalid", b.Golden.MinSpawnDelay, b.Golden.MaxSpawnDelay)
	}
	if b.Golden.Lifetime <= 0 || b.Golden.BonusSeconds <= 0 || b.Golden.Multiplier < 1 {
		return fmt.Errorf("golden lifetime, bonus seconds and multiplier must be positive")
	}
	if b.Threats.PollPeriod <= 0 {
		return fmt.Errorf("threat poll period must be positive")
	}
	if b.Threats.HistoryLimit < b.Threats.SavedHistoryLimit {
		return fmt.Errorf("threat history limit %d is below the saved limit %d", b.Threats.HistoryLimit, b.Threats.SavedHistoryLimit)
	}
	return nil
}
