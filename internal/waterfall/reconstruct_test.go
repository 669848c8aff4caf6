package waterfall

import "testing"

func TestExpandPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		first   string
		last    string
		want    string
	}{
		{"first dot last", "{first}.{last}", "Jane", "Doe", "jane.doe@acme.example"},
		{"initial last", "{f}{last}", "Jane", "Doe", "jdoe@acme.example"},
		{"first only", "{first}", "Jane", "Doe", "jane@acme.example"},
		{"initials", "{f}.{l}", "Jane", "Doe", "j.d@acme.example"},
		{"underscore", "{first}_{last}", "Jane", "Doe", "jane_doe@acme.example"},
		{"pattern with domain", "{first}.{last}@acme.example", "Jane", "Doe", "jane.doe@acme.example"},
		{"accented name", "{first}.{last}", "René", "Müller", "rene.muller@acme.example"},
		{"name with space", "{first}.{last}", "Jane", "van Doe", "jane.vandoe@acme.example"},
		{"hyphenated", "{first}.{last}", "Jean-Luc", "Picard", "jean-luc.picard@acme.example"},
		{"unknown token", "{first}.{middle}.{last}", "Jane", "Doe", ""},
		{"empty pattern", "", "Jane", "Doe", ""},
		{"missing first", "{first}.{last}", "", "Doe", ""},
		{"missing last", "{first}.{last}", "Jane", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandPattern(tt.pattern, tt.first, tt.last, "acme.example")
			if got != tt.want {
				t.Errorf("ExpandPattern(%q, %q, %q) = %q, want %q",
					tt.pattern, tt.first, tt.last, got, tt.want)
			}
		})
	}
}

func TestExpandPattern_NoDomain(t *testing.T) {
	if got := ExpandPattern("{first}.{last}", "Jane", "Doe", ""); got != "" {
		t.Errorf("got %q, want refusal without a domain", got)
	}
}

func TestParseProfileTitle(t *testing.T) {
	tests := []struct {
		title     string
		wantFirst string
		wantLast  string
		wantRole  string
	}{
		{"Jane Doe - VP Operations - Acme Corp | LinkedIn", "Jane", "Doe", "VP Operations"},
		{"Jane Doe | LinkedIn", "Jane", "Doe", ""},
		{"Jane van der Berg - Owner | LinkedIn", "Jane", "van der Berg", "Owner"},
		{"ACME CORP | LinkedIn", "", "", ""},
		{"Jane | LinkedIn", "", "", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		id := ParseProfileTitle(tt.title)
		if tt.wantFirst == "" {
			if id != nil {
				t.Errorf("ParseProfileTitle(%q) = %+v, want nil", tt.title, id)
			}
			continue
		}
		if id == nil {
			t.Errorf("ParseProfileTitle(%q) = nil", tt.title)
			continue
		}
		if id.FirstName != tt.wantFirst || id.LastName != tt.wantLast || id.Title != tt.wantRole {
			t.Errorf("ParseProfileTitle(%q) = %+v", tt.title, id)
		}
	}
}

func TestParseProfileURL(t *testing.T) {
	id := ParseProfileURL("https://www.linkedin.com/in/jane-doe-12ab34")
	if id == nil {
		t.Fatal("expected identity from slug")
	}
	if id.FirstName != "Jane" || id.LastName != "Doe" {
		t.Errorf("got %+v", id)
	}
	if id.LinkedInURL != "https://www.linkedin.com/in/jane-doe-12ab34" {
		t.Errorf("url = %q", id.LinkedInURL)
	}

	if ParseProfileURL("https://www.linkedin.com/company/acme") != nil {
		t.Error("company pages are not profiles")
	}
	if ParseProfileURL("https://example.com/in/jane-doe") != nil {
		t.Error("non-linkedin URLs must be rejected")
	}
}
