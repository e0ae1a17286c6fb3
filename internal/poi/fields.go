package poi

import "strings"

// Fields are the contact details pulled out of the raw tag set. An
// empty string means the tag was absent.
type Fields struct {
	Address      string
	Phone        string
	Website      string
	OpeningHours string
}

// Address components in display order
var addressKeys = []string{"addr:housenumber", "addr:street", "addr:city", "addr:postcode"}

// ExtractFields normalizes contact fields from a tag set. The address
// is the comma-joined concatenation of whichever address components
// are present; phone, website, and opening hours pass through as-is.
func ExtractFields(tags map[string]string) Fields {
	var parts []string
	for _, key := range addressKeys {
		if v, ok := tags[key]; ok {
			parts = append(parts, v)
		}
	}

	return Fields{
		Address:      strings.Join(parts, ", "),
		Phone:        tags["phone"],
		Website:      tags["website"],
		OpeningHours: tags["opening_hours"],
	}
}
