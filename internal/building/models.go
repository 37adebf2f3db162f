// Package building maintains the directory of campus building codes: which OSM way each
// code names, the footprint fetched for it, and the assignment of new codes to buildings
// picked on the map.
package building

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Directory errors.
var (
	ErrBuildingNotFound     = errors.New("building code not found")
	ErrGeometryUnavailable  = errors.New("building geometry not available")
	ErrNoBuildingAtPoint    = errors.New("no building at the given point")
	ErrDirectoryUnavailable = errors.New("building directory unavailable")
)

// DefaultCodePrefix is prepended to generated codes.
const DefaultCodePrefix = "DAL-THR"

// Registration links a building code to the OSM way that outlines the building.
type Registration struct {
	Code      string
	WayID     osm.WayID
	CreatedAt time.Time
}

// Building is a registered building with its current footprint.
type Building struct {
	Code     string
	WayID    osm.WayID
	Name     string
	Outline  []geo.Coordinate
	Centroid geo.Coordinate
}

// NearbyBuilding is a building found around a point. Code is empty when the
// building has not been registered yet.
type NearbyBuilding struct {
	WayID          osm.WayID
	Code           string
	Name           string
	Centroid       geo.Coordinate
	DistanceMeters float64
}

// Footprint is a building outline as returned by the map data source.
type Footprint struct {
	WayID   osm.WayID
	Name    string
	Outline []geo.Coordinate
}

// CodeForWay derives the stable code for a way: prefix, a hyphen and the first
// eight hex digits of sha256("OSM-<id>") in upper case.
func CodeForWay(prefix string, id osm.WayID) string {
	sum := sha256.Sum256([]byte("OSM-" + strconv.FormatInt(int64(id), 10)))
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

// NormalizeCode trims and upper-cases a code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
