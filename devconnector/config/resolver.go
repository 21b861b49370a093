package config

import (
	"context"
	"os"
	"strings"

	constant "github.com/Junni007/Devconnector/devconnector/constants"
	"github.com/Junni007/Devconnector/devconnector/log"
)

// KeyedSource is a configuration layer that can be queried by key.
type KeyedSource interface {
	Lookup(key string) (string, bool)
}

// Resolver produces the MongoDB connection string.
type Resolver struct {
	source    KeyedSource
	logger    log.Logger
	lookupEnv func(string) (string, bool)
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.lookupEnv = fn
		}
	}
}

// NewResolver builds a Resolver over source. Both source and logger may be nil.
func NewResolver(source KeyedSource, logger log.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = log.NewNop()
	}

	r := &Resolver{
		source:    source,
		logger:    logger,
		lookupEnv: os.LookupEnv,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve returns MONGO_URI when it is set and non-blank, otherwise the
// `mongoURI` configuration key. It never dials and never retries.
func (r *Resolver) Resolve() (string, error) {
	if value, ok := r.lookupEnv(constant.EnvMongoURI); ok {
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}

	if r.source != nil {
		if value, ok := r.source.Lookup(constant.ConfigKeyMongoURI); ok {
			return value, nil
		}
	}

	r.logger.Log(context.Background(), log.LevelError, "failed to resolve mongo connection string",
		log.String("env", constant.EnvMongoURI),
		log.String("config_key", constant.ConfigKeyMongoURI),
	)

	return "", &ConfigurationError{Err: ErrConnectionStringUndefined}
}
