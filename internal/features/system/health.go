package system

import (
	"context"

	"go-cms/internal/database"
	"go-cms/internal/features/storage"
)

// Check is one dependency probed by the health endpoint
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthChecks probes the document store, the credential store and, when
// it is shared, the upload session store.
func NewHealthChecks(mongodb *database.MongodbDB, credentials *database.CredentialDB, tracker storage.SessionTracker) []Check {
	checks := []Check{
		{
			Name: "mongodb",
			Ping: func(ctx context.Context) error {
				return mongodb.DB.Client().Ping(ctx, nil)
			},
		},
		{
			Name: "credentials",
			Ping: credentials.DB.PingContext,
		},
	}
	if p, ok := tracker.(pinger); ok {
		checks = append(checks, Check{Name: "sessions", Ping: p.Ping})
	}
	return checks
}
