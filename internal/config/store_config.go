package config

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-oauth-flows/internal/errors"
)

// Correlation store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
)

type StoreConfig interface {
	GetStore() string
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisPrefix() string
}

type Store struct {
	Backend       string `env:"STORE" envDefault:"memory"`
	DataFolder    string `env:"DATA_FOLDER" envDefault:"./data"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"oauthflow"`
}

var _ StoreConfig = Store{}

func (s Store) validate() error {
	switch s.Backend {
	case StoreMemory, StoreBolt, StoreRedis:
		return nil
	}
	return fmt.Errorf("%w: %w %q", apperrors.ErrInvalidConfig, apperrors.ErrUnknownStore, s.Backend)
}

func (s Store) GetStore() string {
	return s.Backend
}

func (s Store) GetDataFolder() string {
	return s.DataFolder
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Store) GetRedisPrefix() string {
	return s.RedisPrefix
}
