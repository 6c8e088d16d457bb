package regions

import (
	"testing"

	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestSelectsClosest(t *testing.T) {
	catalog := DefaultCatalog()

	london := interfaces.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
	match := catalog.Nearest(london)
	assert.Equal(t, "eu-west-2", match.Region.Name)
	assert.Less(t, match.DistanceKm, 100.0)

	tokyo := interfaces.GeoPoint{Latitude: 35.6762, Longitude: 139.6503}
	match = catalog.Nearest(tokyo)
	assert.Equal(t, "ap-northeast-1", match.Region.Name)

	sydney := interfaces.GeoPoint{Latitude: -33.8688, Longitude: 151.2093}
	match = catalog.Nearest(sydney)
	assert.Equal(t, "ap-southeast-2", match.Region.Name)
}

func TestNearestLastTieWins(t *testing.T) {
	catalog, err := NewCatalog([]interfaces.Region{
		{Name: "first", Latitude: 0, Longitude: 0},
		{Name: "second", Latitude: 0, Longitude: 0},
	})
	require.NoError(t, err)

	match := catalog.Nearest(interfaces.GeoPoint{Latitude: 0, Longitude: 0})
	assert.Equal(t, "second", match.Region.Name)
	assert.Zero(t, match.DistanceKm)
}

func TestNearestAlwaysMatches(t *testing.T) {
	catalog := DefaultCatalog()

	// A point as far from every candidate as the globe allows still
	// selects something.
	southPole := interfaces.GeoPoint{Latitude: -90, Longitude: 0}
	match := catalog.Nearest(southPole)
	assert.NotEmpty(t, match.Region.Name)
	assert.Less(t, match.DistanceKm, float64(maxSearchDistanceKm))
}

func TestDistance(t *testing.T) {
	london := interfaces.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
	paris := interfaces.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}

	assert.InDelta(t, 343.9, Distance(london, paris), 5.0)
	assert.Equal(t, Distance(london, paris), Distance(paris, london))
	assert.Zero(t, Distance(london, london))
}

func TestByName(t *testing.T) {
	catalog := DefaultCatalog()

	region, ok := catalog.ByName("eu-west-2")
	require.True(t, ok)
	assert.Equal(t, "eu-west-2", region.Name)

	_, ok = catalog.ByName("mars-north-1")
	assert.False(t, ok)
}

func TestNewCatalogRejectsEmpty(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	catalog, err := NewCatalog([]interfaces.Region{
		{Name: "a"}, {Name: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, catalog.Names())
}
