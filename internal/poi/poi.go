package poi

// ElementType is the source element's namespace. Composite identity
// (ElementType, OsmID) is the stable key downstream consumers
// reference; node and way IDs overlap, the type disambiguates.
type ElementType string

const (
	TypeNode ElementType = "N"
	TypeWay  ElementType = "W"
)

// POI is one classified point of interest derived from a single
// element. Records are created once per ingestion run and never
// updated in place; a rebuild replaces the whole generation.
type POI struct {
	OsmID   int64
	OsmType ElementType

	Name     string
	Class    string
	Subclass string

	Lat float64
	Lon float64

	// Full original tag set, kept verbatim for re-classification and
	// for consumers that read tags the extractor does not special-case
	Tags map[string]string

	Fields Fields
}
