// Package config loads runtime settings from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerAddress string        `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	PostgresConn  string        `env:"POSTGRES_CONN,required"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	S3Endpoint  string `env:"S3_ENDPOINT" envDefault:"http://127.0.0.1:9000"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"rfp-documents"`
	S3AccessKey string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey string `env:"S3_SECRET_KEY,required"`

	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
