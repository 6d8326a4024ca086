package handlers

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(time.Hour)
	builds := 0
	create := func() (*registryEntry, error) {
		builds++
		return &registryEntry{}, nil
	}

	first, created, err := r.getOrCreate("s1", "e1", create)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := r.getOrCreate("s1", "e1", create)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)

	_, created, err = r.getOrCreate("s2", "e1", create)
	require.NoError(t, err)
	assert.True(t, created, "sessions do not share browsers")
	assert.Equal(t, 2, builds)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryCreateError(t *testing.T) {
	r := NewRegistry(time.Hour)
	boom := errors.New("boom")

	_, _, err := r.getOrCreate("s1", "e1", func() (*registryEntry, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}

func TestRegistryBuildsOutsideLock(t *testing.T) {
	r := NewRegistry(time.Hour)
	building := make(chan struct{})
	release := make(chan struct{})

	done := make(chan *registryEntry, 1)
	go func() {
		e, _, _ := r.getOrCreate("s1", "e1", func() (*registryEntry, error) {
			close(building)
			<-release
			return &registryEntry{}, nil
		})
		done <- e
	}()
	<-building

	// another session is served while the first browser is still being built
	other, created, err := r.getOrCreate("s2", "e2", func() (*registryEntry, error) { return &registryEntry{}, nil })
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, other)
	assert.Equal(t, 1, r.Len())

	// a racing build for the same pair loses to the entry stored first
	winner, created, err := r.getOrCreate("s1", "e1", func() (*registryEntry, error) { return &registryEntry{}, nil })
	require.NoError(t, err)
	assert.True(t, created)

	close(release)
	loser := <-done
	assert.Same(t, winner, loser)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryDropSession(t *testing.T) {
	r := NewRegistry(time.Hour)
	create := func() (*registryEntry, error) { return &registryEntry{}, nil }
	r.getOrCreate("s1", "e1", create)
	r.getOrCreate("s1", "e2", create)
	r.getOrCreate("s10", "e1", create)

	assert.Equal(t, 2, r.DropSession("s1"))
	assert.Equal(t, 1, r.Len(), "only exact session ids are dropped")
}

func TestRegistryPurgeExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(30 * time.Minute)
	r.now = func() time.Time { return now }
	create := func() (*registryEntry, error) { return &registryEntry{}, nil }

	r.getOrCreate("s1", "e1", create)
	now = now.Add(20 * time.Minute)
	r.getOrCreate("s2", "e2", create)
	now = now.Add(20 * time.Minute)

	n, err := r.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, r.Len())
}

func TestParseCriteria(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	q := url.Values{
		"startDate":    {"2024-03-01"},
		"endDate":      {"2024-03-02T18:00:00Z"},
		"mobileNumber": {" 987 "},
		"city":         {"Pune"},
	}

	c, err := parseCriteria(q, ist)
	require.NoError(t, err)
	require.True(t, c.DateRange.Active())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, ist), c.DateRange.Start)
	assert.True(t, c.DateRange.End.Equal(time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, "987", c.MobileNumber)
	assert.Equal(t, "Pune", c.City)
	assert.Empty(t, c.Status)
}

func TestHasCriteria(t *testing.T) {
	assert.False(t, hasCriteria(url.Values{"page": {"2"}}))
	assert.True(t, hasCriteria(url.Values{"city": {""}}), "an empty parameter clears criteria")
}

func TestParsePage(t *testing.T) {
	_, ok, err := parsePage("")
	assert.NoError(t, err)
	assert.False(t, ok)

	n, ok, err := parsePage("4")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, _, err = parsePage("four")
	assert.Error(t, err)
}
