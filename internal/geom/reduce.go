package geom

import "errors"

var (
	// ErrUnresolvedVertex means a way references a node with no known
	// coordinate, typically outside the extract's coverage. Partial
	// geometry is never acceptable.
	ErrUnresolvedVertex = errors.New("way has an unresolved vertex")

	// ErrDegenerate means the vertex chain is too short to form the
	// shape its tags imply
	ErrDegenerate = errors.New("degenerate geometry")
)

// Point is a WGS84 coordinate
type Point struct {
	Lat float64
	Lon float64
}

// Vertex is one member point of a way. Valid is false when the node's
// coordinate is unknown.
type Vertex struct {
	Lat   float64
	Lon   float64
	Valid bool
}

// Tag keys that make a closed way an area rather than a closed
// linestring (e.g. a roundabout)
var areaKeys = []string{"building", "landuse", "leisure", "amenity"}

func hasAreaKey(tags map[string]string) bool {
	for _, k := range areaKeys {
		if _, ok := tags[k]; ok {
			return true
		}
	}
	return false
}

// ReduceWay collapses a way's vertex chain to one representative
// point. A closed way carrying an area key yields the first vertex of
// its exterior ring; this is a cheap approximation, not a centroid.
// Anything else is treated as a linestring and yields the vertex at
// the midpoint index.
func ReduceWay(vertices []Vertex, closed bool, tags map[string]string) (Point, error) {
	for _, v := range vertices {
		if !v.Valid {
			return Point{}, ErrUnresolvedVertex
		}
	}

	if closed && hasAreaKey(tags) {
		// A ring needs at least 4 vertices (first repeated as last)
		if len(vertices) < 4 {
			return Point{}, ErrDegenerate
		}
		return Point{Lat: vertices[0].Lat, Lon: vertices[0].Lon}, nil
	}

	if len(vertices) < 2 {
		return Point{}, ErrDegenerate
	}
	mid := vertices[len(vertices)/2]
	return Point{Lat: mid.Lat, Lon: mid.Lon}, nil
}
