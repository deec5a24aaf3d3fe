package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache stores one parsed value per configuration type so every package sees
// the same configuration for the whole process lifetime.
type cache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	loaded = &cache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}

	dotenvOnce sync.Once
)

// Load parses environment variables into the provided configuration struct
// based on `env` field tags. The first call for a given type parses the
// environment; subsequent calls return the cached value. A .env file, if
// present, is loaded once before the first parse.
//
//	type CacheConfig struct {
//		TTL     time.Duration `env:"TENANT_CACHE_TTL" envDefault:"30m"`
//		Window  time.Duration `env:"TENANT_CACHE_WINDOW" envDefault:"10m"`
//	}
//
//	var cfg CacheConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// Missing .env is fine; real deployments set variables directly.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	name := typeName[T]()

	loaded.mu.RLock()
	if cached, ok := loaded.values[name]; ok {
		*v = cached.(T)
		loaded.mu.RUnlock()
		return nil
	}
	loaded.mu.RUnlock()

	loaded.mu.Lock()
	once, ok := loaded.onces[name]
	if !ok {
		once = new(sync.Once)
		loaded.onces[name] = once
	}
	loaded.mu.Unlock()

	var parseErr error
	once.Do(func() {
		if err := env.Parse(v); err != nil {
			parseErr = errors.Join(ErrParsingConfig, err)
			return
		}
		loaded.mu.Lock()
		loaded.values[name] = *v
		loaded.mu.Unlock()
	})
	if parseErr != nil {
		return parseErr
	}

	loaded.mu.RLock()
	defer loaded.mu.RUnlock()
	if cached, ok := loaded.values[name]; ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
