package tournament

import (
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{
		StartingStack: 1000,
		Levels:        []BlindLevel{{Small: 10, Big: 20, Hands: 10}},
		Seats: []SeatConfig{
			{Seat: 0, AgentID: "alpha"},
			{Seat: 1, AgentID: "beta"},
			{Seat: 2, AgentID: "gamma"},
		},
	}
}

func TestConfigValidateOK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero stack", func(c *Config) { c.StartingStack = 0 }},
		{"no levels", func(c *Config) { c.Levels = nil }},
		{"zero blind", func(c *Config) { c.Levels[0].Small = 0 }},
		{"zero hands", func(c *Config) { c.Levels[0].Hands = 0 }},
		{"one seat", func(c *Config) { c.Seats = c.Seats[:1] }},
		{"too many seats", func(c *Config) {
			c.Seats = nil
			for i := 0; i < 11; i++ {
				c.Seats = append(c.Seats, SeatConfig{Seat: i, AgentID: "x"})
			}
		}},
		{"seat out of range", func(c *Config) { c.Seats[0].Seat = 10 }},
		{"negative seat", func(c *Config) { c.Seats[0].Seat = -1 }},
		{"duplicate seat", func(c *Config) { c.Seats[1].Seat = c.Seats[0].Seat }},
		{"empty agent id", func(c *Config) { c.Seats[2].AgentID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrBadConfig) {
				t.Fatalf("got %v, want ErrBadConfig", err)
			}
		})
	}
}

func TestParseBlindSchedule(t *testing.T) {
	levels, err := ParseBlindSchedule("10/20x10, 20/40x5,50/100")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []BlindLevel{
		{Small: 10, Big: 20, Hands: 10},
		{Small: 20, Big: 40, Hands: 5},
		{Small: 50, Big: 100, Hands: 10},
	}
	if len(levels) != len(want) {
		t.Fatalf("levels = %+v, want %+v", levels, want)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("level %d = %+v, want %+v", i, levels[i], want[i])
		}
	}

	for _, bad := range []string{"", "10-20", "10/x5", "a/bx2", "10/20xq"} {
		if _, err := ParseBlindSchedule(bad); !errors.Is(err, ErrBadConfig) {
			t.Fatalf("schedule %q: got %v, want ErrBadConfig", bad, err)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if got := cfg.raiseCap(); got != DefaultRaiseCap {
		t.Fatalf("raise cap default = %d, want %d", got, DefaultRaiseCap)
	}
	if got := cfg.rationaleLimit(); got != DefaultRationaleLimit {
		t.Fatalf("rationale limit default = %d, want %d", got, DefaultRationaleLimit)
	}
	cfg.RaiseCap = 4
	cfg.RationaleLimit = 64
	if cfg.raiseCap() != 4 || cfg.rationaleLimit() != 64 {
		t.Fatalf("explicit overrides ignored")
	}
}
