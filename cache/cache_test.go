package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaddesk/backend/models"
)

func TestPageKey(t *testing.T) {
	q := models.ListQuery{SubjectID: "bde-1", Page: 1, PageSize: 20}

	key := PageKey(q)
	assert.True(t, strings.HasPrefix(key, "leads:bde-1:"))
	assert.Equal(t, key, PageKey(q), "keys are deterministic")

	other := q
	other.Page = 2
	assert.NotEqual(t, key, PageKey(other))

	filtered := q
	filtered.Criteria.City = "Pune"
	assert.NotEqual(t, key, PageKey(filtered))

	assert.Equal(t, "leads:bde-1:meta", MetadataKey("bde-1"))
}

// setupRedis connects to TEST_REDIS_ADDR, skipping when it is not set.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis tests")
	}
	rdb, err := Connect(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

type countingLister struct {
	calls int
}

func (c *countingLister) ListLeads(ctx context.Context, q models.ListQuery) (*models.LeadPage, error) {
	c.calls++
	return &models.LeadPage{
		Records:     []models.LeadRecord{{ID: "b1", City: "Pune"}},
		TotalPages:  1,
		CurrentPage: q.Page,
	}, nil
}

func TestListerCachesAndInvalidates(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	subject := "test-" + uuid.NewString()
	t.Cleanup(func() { NewPageCache(rdb, time.Minute).Invalidate(ctx, subject) })

	next := &countingLister{}
	lister := NewLister(next, NewPageCache(rdb, time.Minute))
	q := models.ListQuery{SubjectID: subject, Page: 1, PageSize: 20}

	page, err := lister.ListLeads(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "b1", page.Records[0].ID)

	_, err = lister.ListLeads(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "second read is served from cache")

	require.NoError(t, lister.Invalidate(ctx, subject))

	_, err = lister.ListLeads(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestGetMissWithoutMetadata(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	_, err := NewPageCache(rdb, time.Minute).Get(ctx, models.ListQuery{SubjectID: "missing-" + uuid.NewString()})
	assert.ErrorIs(t, err, redis.Nil)
}
