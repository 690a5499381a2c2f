package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// BotConfig drives cmd/seat-bot.
type BotConfig struct {
	APIURL   string        `env:"API_URL" envDefault:"http://localhost:8080"`
	WSURL    string        `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	RoomID   string        `env:"ROOM_ID,required,notEmpty"`
	Token    string        `env:"TOKEN,required,notEmpty"`
	Interval time.Duration `env:"BOT_INTERVAL" envDefault:"2s"`
	Moves    int           `env:"BOT_MOVES" envDefault:"0"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
