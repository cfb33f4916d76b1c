package config

import "github.com/caarlos0/env/v11"

// TournamentConfig supplies run defaults for start requests that leave the
// corresponding fields empty. The blind schedule is a compact string,
// "small/bigxhands" levels separated by commas.
type TournamentConfig struct {
	StartingStack  int64  `env:"TOURNAMENT_STARTING_STACK" envDefault:"1000"`
	BlindSchedule  string `env:"TOURNAMENT_BLINDS" envDefault:"10/20x10,20/40x10,50/100x10"`
	RaiseCap       int    `env:"TOURNAMENT_RAISE_CAP" envDefault:"2"`
	RationaleLimit int    `env:"TOURNAMENT_RATIONALE_LIMIT" envDefault:"2000"`
}

func LoadTournament() (TournamentConfig, error) {
	var cfg TournamentConfig
	err := env.Parse(&cfg)
	return cfg, err
}
