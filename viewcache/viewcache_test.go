package viewcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claims "github.com/goliatone/go-claims"
)

func testClaim(id string, status claims.Status) *claims.Claim {
	return &claims.Claim{
		ID:     id,
		Status: status,
		Fields: map[claims.Field]any{claims.FieldClaimantName: "Ada Smith"},
	}
}

func TestDetailRoundTripReturnsCopy(t *testing.T) {
	cache := New()
	cache.PutDetail(testClaim("c1", claims.StatusDraft))

	got, ok := cache.Detail("c1")
	require.True(t, ok)

	got.Fields[claims.FieldClaimantName] = "mutated"
	again, ok := cache.Detail("c1")
	require.True(t, ok)
	assert.Equal(t, "Ada Smith", again.Fields[claims.FieldClaimantName])
}

func TestInvalidateDetailForcesRefetch(t *testing.T) {
	cache := New()
	cache.PutDetail(testClaim("c1", claims.StatusDraft))

	cache.InvalidateDetail("c1")
	_, ok := cache.Detail("c1")
	assert.False(t, ok)

	// A fresh put replaces the flagged entry.
	cache.PutDetail(testClaim("c1", claims.StatusInReview))
	got, ok := cache.Detail("c1")
	require.True(t, ok)
	assert.Equal(t, claims.StatusInReview, got.Status)
}

func TestInvalidateListsFlagsEveryView(t *testing.T) {
	cache := New()
	cache.PutList("status=DRAFT", []claims.Projection{{ID: "c1", Status: claims.StatusDraft}})
	cache.PutList("status=IN_REVIEW", []claims.Projection{{ID: "c2", Status: claims.StatusInReview}})
	cache.PutDetail(testClaim("c1", claims.StatusDraft))

	cache.InvalidateLists("c1")

	_, ok := cache.List("status=DRAFT")
	assert.False(t, ok)
	_, ok = cache.List("status=IN_REVIEW")
	assert.False(t, ok, "the claim may have moved into any cached list")

	_, ok = cache.Detail("c1")
	assert.True(t, ok, "list invalidation leaves detail views alone")
}

func TestSweepStaleDropsFlaggedAndOldEntries(t *testing.T) {
	cache := New()
	cache.PutDetail(testClaim("c1", claims.StatusDraft))
	cache.PutDetail(testClaim("c2", claims.StatusDraft))
	cache.PutList("all", []claims.Projection{{ID: "c1"}})

	cache.InvalidateDetail("c1")
	assert.Equal(t, 1, cache.SweepStale(time.Hour), "only the flagged entry goes")
	assert.Equal(t, 2, cache.Len())

	assert.Equal(t, 2, cache.SweepStale(0), "age zero sweeps everything")
	assert.Equal(t, 0, cache.Len())
}

func TestListReturnsCopy(t *testing.T) {
	cache := New()
	cache.PutList("all", []claims.Projection{{ID: "c1", Status: claims.StatusDraft}})

	got, ok := cache.List("all")
	require.True(t, ok)
	got[0].ID = "mutated"

	again, _ := cache.List("all")
	assert.Equal(t, "c1", again[0].ID)
}
