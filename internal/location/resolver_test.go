package location_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/pkg/geo"
)

type fakePositioner struct {
	coord geo.Coordinate
	err   error
	calls atomic.Int32
}

func (f *fakePositioner) CurrentPosition(context.Context) (geo.Coordinate, error) {
	f.calls.Add(1)
	return f.coord, f.err
}

type fakeDirectory struct {
	buildings map[string]*building.Building
	err       error
	calls     atomic.Int32

	mu    sync.Mutex
	codes []string
}

func (f *fakeDirectory) LookupByCode(_ context.Context, code string) (*building.Building, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.codes = append(f.codes, code)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.buildings[code]
	if !ok {
		return nil, building.ErrBuildingNotFound
	}
	return b, nil
}

type fakeGeocoder struct {
	candidates []location.Candidate
	err        error
	calls      atomic.Int32

	mu       sync.Mutex
	lastText string
	lastBias string
}

func (f *fakeGeocoder) Search(_ context.Context, text, bias string) ([]location.Candidate, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastText, f.lastBias = text, bias
	f.mu.Unlock()
	return f.candidates, f.err
}

var dal042 = &building.Building{
	Code:  "DAL-042",
	WayID: 1001,
	Outline: []geo.Coordinate{
		{Lat: 10.5999, Lon: 76.2199},
		{Lat: 10.5999, Lon: 76.2201},
		{Lat: 10.6001, Lon: 76.2201},
		{Lat: 10.6001, Lon: 76.2199},
	},
	Centroid: geo.Coordinate{Lat: 10.60, Lon: 76.22},
}

type fixture struct {
	positioner *fakePositioner
	directory  *fakeDirectory
	geocoder   *fakeGeocoder
	resolver   *location.Resolver
}

func newFixture() *fixture {
	f := &fixture{
		positioner: &fakePositioner{coord: geo.Coordinate{Lat: 10.59, Lon: 76.21}},
		directory:  &fakeDirectory{buildings: map[string]*building.Building{"DAL-042": dal042}},
		geocoder: &fakeGeocoder{candidates: []location.Candidate{
			{Coordinate: geo.Coordinate{Lat: 10.5276, Lon: 76.2144}, Label: "Jubilee Mission Medical College, Thrissur"},
			{Coordinate: geo.Coordinate{Lat: 10.53, Lon: 76.21}, Label: "Jubilee Junction"},
		}},
	}
	f.resolver = location.NewResolver(location.ResolverConfig{
		Positioner: f.positioner,
		Buildings:  f.directory,
		Geocoder:   f.geocoder,
		Logger:     zerolog.Nop(),
	})
	return f
}

func (f *fixture) gatewayCalls() int32 {
	return f.positioner.calls.Load() + f.directory.calls.Load() + f.geocoder.calls.Load()
}

func TestResolve_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		f := newFixture()

		loc, err := f.resolver.Resolve(context.Background(), q)
		assert.Nil(t, loc)
		assert.ErrorIs(t, err, location.ErrEmptyQuery)
		assert.Equal(t, int32(0), f.gatewayCalls())
	}
}

func TestResolve_CurrentLocationAliases(t *testing.T) {
	var results []*location.ResolvedLocation
	for _, q := range []string{"my location", "Current Location", "  MY LOCATION  "} {
		f := newFixture()

		loc, err := f.resolver.Resolve(context.Background(), q)
		require.NoError(t, err, q)
		results = append(results, loc)

		assert.Equal(t, int32(1), f.positioner.calls.Load())
		assert.Equal(t, int32(0), f.directory.calls.Load()+f.geocoder.calls.Load())
	}

	for _, loc := range results {
		assert.Equal(t, results[0], loc)
		assert.Equal(t, location.LabelMyLocation, loc.Label)
		assert.Equal(t, geo.Coordinate{Lat: 10.59, Lon: 76.21}, loc.Coordinate)
		assert.False(t, loc.HasOutline())
		assert.Equal(t, location.SourcePosition, loc.Source)
	}
}

func TestResolve_PositionUnavailable(t *testing.T) {
	f := newFixture()
	f.positioner.err = errors.New("permission denied")

	_, err := f.resolver.Resolve(context.Background(), "my location")
	assert.ErrorIs(t, err, location.ErrPositionUnavailable)

	var locErr *location.Error
	require.ErrorAs(t, err, &locErr)
	assert.Equal(t, "POSITION_UNAVAILABLE", locErr.Code)
}

func TestResolve_ReportedPosition(t *testing.T) {
	resolver := location.NewResolver(location.ResolverConfig{Logger: zerolog.Nop()})

	_, err := resolver.Resolve(context.Background(), "my location")
	assert.ErrorIs(t, err, location.ErrPositionUnavailable)

	ctx := location.WithReportedPosition(context.Background(), geo.Coordinate{Lat: 10.5907, Lon: 76.2086})
	loc, err := resolver.Resolve(ctx, "current location")
	require.NoError(t, err)
	assert.Equal(t, geo.Coordinate{Lat: 10.5907, Lon: 76.2086}, loc.Coordinate)

	bad := location.WithReportedPosition(context.Background(), geo.Coordinate{Lat: 123, Lon: 0})
	_, err = resolver.Resolve(bad, "my location")
	assert.ErrorIs(t, err, location.ErrPositionUnavailable)
}

func TestResolve_BuildingCodeHit(t *testing.T) {
	f := newFixture()

	loc, err := f.resolver.Resolve(context.Background(), "  dal-042 ")
	require.NoError(t, err)

	assert.Equal(t, "DAL-042", loc.Label)
	assert.Equal(t, "DAL-042", loc.BuildingCode)
	assert.Equal(t, geo.Coordinate{Lat: 10.60, Lon: 76.22}, loc.Coordinate)
	assert.True(t, loc.HasOutline())
	assert.Len(t, loc.BuildingOutline, 4)
	assert.Equal(t, location.SourceBuilding, loc.Source)

	assert.Equal(t, []string{"DAL-042"}, f.directory.codes)
	assert.Equal(t, int32(0), f.geocoder.calls.Load())
	assert.Equal(t, int32(0), f.positioner.calls.Load())
}

func TestResolve_BuildingCodeMissFallsThrough(t *testing.T) {
	for _, dirErr := range []error{nil, building.ErrGeometryUnavailable} {
		f := newFixture()
		f.directory.err = dirErr

		loc, err := f.resolver.Resolve(context.Background(), "DAL-999")
		require.NoError(t, err)

		assert.Equal(t, int32(1), f.directory.calls.Load())
		assert.Equal(t, int32(1), f.geocoder.calls.Load())
		assert.Equal(t, "DAL-999", f.geocoder.lastText)
		assert.Equal(t, location.SourceGeocoder, loc.Source)
		assert.False(t, loc.HasOutline())
	}
}

func TestResolve_BuildingDirectoryDown(t *testing.T) {
	f := newFixture()
	f.directory.err = building.ErrDirectoryUnavailable

	_, err := f.resolver.Resolve(context.Background(), "DAL-042")
	assert.ErrorIs(t, err, location.ErrServiceUnavailable)
	assert.Equal(t, int32(0), f.geocoder.calls.Load())
}

func TestResolve_GeocoderPassthrough(t *testing.T) {
	f := newFixture()

	loc, err := f.resolver.Resolve(context.Background(), "Jubilee Mission")
	require.NoError(t, err)

	first := f.geocoder.candidates[0]
	assert.Equal(t, first.Coordinate, loc.Coordinate)
	assert.Equal(t, first.Label, loc.Label)
	assert.Equal(t, "Jubilee Mission", f.geocoder.lastText)
	assert.Equal(t, location.DefaultLocalityBias, f.geocoder.lastBias)
	assert.Equal(t, int32(0), f.directory.calls.Load())
}

func TestResolve_GeocoderLabelFallback(t *testing.T) {
	f := newFixture()
	f.geocoder.candidates = []location.Candidate{{Coordinate: geo.Coordinate{Lat: 10.5, Lon: 76.2}}}

	loc, err := f.resolver.Resolve(context.Background(), "Kuruppam Road")
	require.NoError(t, err)
	assert.Equal(t, "Kuruppam Road", loc.Label)
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture()
	f.geocoder.candidates = nil

	loc, err := f.resolver.Resolve(context.Background(), "Atlantis")
	assert.Nil(t, loc)
	assert.ErrorIs(t, err, location.ErrNotFound)
	assert.Contains(t, err.Error(), `"Atlantis"`)
}

func TestResolve_GeocoderUnavailable(t *testing.T) {
	f := newFixture()
	f.geocoder.err = errors.New("timeout")

	_, err := f.resolver.Resolve(context.Background(), "Swaraj Round")
	assert.ErrorIs(t, err, location.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, location.ErrNotFound)
}

func TestResolve_CustomLocalityBias(t *testing.T) {
	g := &fakeGeocoder{candidates: []location.Candidate{{Label: "x"}}}
	resolver := location.NewResolver(location.ResolverConfig{
		Geocoder:     g,
		LocalityBias: "Kerala",
		Logger:       zerolog.Nop(),
	})

	_, err := resolver.Resolve(context.Background(), "Guruvayur")
	require.NoError(t, err)
	assert.Equal(t, "Kerala", g.lastBias)
}
