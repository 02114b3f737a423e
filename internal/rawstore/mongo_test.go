package rawstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

func TestMongoStore_NotInitialized(t *testing.T) {
	store := &MongoStore{}
	ctx := context.Background()

	assert.Error(t, store.Connect(ctx))
	assert.Error(t, store.Save(ctx, core.SourceReddit, nil))

	_, err := store.LoadAll(ctx)
	assert.Error(t, err)

	assert.NoError(t, store.Close(ctx))
}

func TestOpen_FallsBackToFileStore(t *testing.T) {
	cfg := config.RawStoreConfig{
		// Nothing listens on port 1; server selection fails fast.
		MongoURI:      "mongodb://127.0.0.1:1",
		MongoDatabase: "brandpulse",
		Timeout:       100 * time.Millisecond,
		Dir:           t.TempDir(),
	}

	store := Open(context.Background(), cfg, testutil.NewTestLogger(t))
	require.NotNil(t, store)
	assert.Equal(t, "file", store.Kind())
}
