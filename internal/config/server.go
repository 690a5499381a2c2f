package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	JWTSecret string `env:"AUTH_JWT_SECRET,required,notEmpty"`
	JWTIssuer string `env:"AUTH_JWT_ISSUER"`

	Games         []string `env:"GAMES" envDefault:"tetris,snake,breakout" envSeparator:","`
	RoomCapacity  int      `env:"ROOM_CAPACITY" envDefault:"100"`
	TablesPerRoom int      `env:"TABLES_PER_ROOM" envDefault:"20"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
