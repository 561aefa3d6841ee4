package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/domain"
)

func Test_Cache_Drops_Read_That_Raced_A_Write(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "homestead.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	created, err := s.CreateListing(t.Context(), &domain.Listing{
		Name: "Before", Address: "1 Main St", Type: domain.CategoryRent, OwnerID: "alice",
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	ck := cacheKey(bucketListings, created.ID)

	// A reader starts and reads the old bytes before the write commits
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()
	stale, err := json.Marshal(created)
	require.NoError(t, err)

	edit := *created
	edit.Name = "After"
	_, err = s.UpdateListing(t.Context(), "alice", &edit)
	require.NoError(t, err)

	s.remember(ck, stale, gen)

	s.mu.RLock()
	_, cached := s.cache[ck]
	s.mu.RUnlock()
	assert.False(t, cached)

	got, err := s.GetListing(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)

	// The fresh read is cached
	s.mu.RLock()
	_, cached = s.cache[ck]
	s.mu.RUnlock()
	assert.True(t, cached)
}
