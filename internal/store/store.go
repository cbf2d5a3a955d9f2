package store

import (
	"context"
	"errors"
)

// Store is durable key-value storage for one browser profile. Set is
// atomic per key; nothing is atomic across keys.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	Close() error
}

var ErrUnknownDriver = errors.New("unknown store driver")

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Keys names the three entries the storefront keeps per profile.
type Keys struct {
	Cart       string
	User       string
	Credential string
}

func NewKeys(namespace string) Keys {
	if namespace == "" {
		namespace = "qaligo"
	}
	return Keys{
		Cart:       namespace + "_cart",
		User:       namespace + "_user",
		Credential: namespace + "_token",
	}
}
