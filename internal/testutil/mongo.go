// AngelaMos | 2026
// mongo.go

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/vidtube/go-backend/internal/config"
	"github.com/vidtube/go-backend/internal/core"
)

const mongoImage = "mongo:7"

// NewTestMongo starts a disposable MongoDB container with indexes in place.
// It skips under -short and when no container runtime is reachable.
func NewTestMongo(t *testing.T) *core.Mongo {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping mongo integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := mongodb.Run(ctx, mongoImage)
	if err != nil {
		t.Skipf("mongo container unavailable: %v", err)
	}
	t.Cleanup(func() {
		//nolint:errcheck // container teardown
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongo connection string: %v", err)
	}

	db, err := core.NewMongo(ctx, config.DatabaseConfig{
		Driver:         config.DriverMongo,
		URL:            uri,
		Name:           "vidtube_test",
		ConnectTimeout: 30 * time.Second,
		MaxOpenConns:   10,
	})
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() {
		//nolint:errcheck // test teardown
		_ = db.Close(context.Background())
	})

	if err := db.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	return db
}
