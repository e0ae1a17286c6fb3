package poi

import "testing"

func TestExtractFieldsAddress(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{
			"full address",
			map[string]string{
				"addr:housenumber": "350",
				"addr:street":      "S State St",
				"addr:city":        "Salt Lake City",
				"addr:postcode":    "84111",
			},
			"350, S State St, Salt Lake City, 84111",
		},
		{
			"partial address keeps order",
			map[string]string{
				"addr:postcode": "84111",
				"addr:street":   "S State St",
			},
			"S State St, 84111",
		},
		{
			"no address tags",
			map[string]string{"amenity": "cafe"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFields(tt.tags)
			if got.Address != tt.want {
				t.Errorf("expected address %q, got %q", tt.want, got.Address)
			}
		})
	}
}

func TestExtractFieldsPassthrough(t *testing.T) {
	tags := map[string]string{
		"phone":         "+1-801-555-0100",
		"website":       "https://example.com",
		"opening_hours": "Mo-Fr 09:00-17:00",
	}

	f := ExtractFields(tags)
	if f.Phone != tags["phone"] {
		t.Errorf("expected phone %q, got %q", tags["phone"], f.Phone)
	}
	if f.Website != tags["website"] {
		t.Errorf("expected website %q, got %q", tags["website"], f.Website)
	}
	if f.OpeningHours != tags["opening_hours"] {
		t.Errorf("expected opening_hours %q, got %q", tags["opening_hours"], f.OpeningHours)
	}
}

func TestExtractFieldsAbsent(t *testing.T) {
	f := ExtractFields(map[string]string{})
	if f.Address != "" || f.Phone != "" || f.Website != "" || f.OpeningHours != "" {
		t.Errorf("expected empty fields, got %+v", f)
	}
}
