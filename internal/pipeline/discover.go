package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/serper"
)

// DiscoverStage finds candidate businesses on Google Maps and seeds the
// dataset file.
type DiscoverStage struct {
	Serper   serper.Client
	DataPath string
	Industry string
	Location string
	MaxLeads int
	Now      func() time.Time
}

func (s *DiscoverStage) Run(ctx context.Context) error {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	query := s.Industry + " " + s.Location
	num := s.MaxLeads
	if num > 100 {
		num = 100 // Serper cap per request
	}

	zap.L().Info("discover: searching",
		zap.String("query", query),
		zap.Int("max_leads", s.MaxLeads),
	)

	industry := cleanIndustry(s.Industry)
	seen := make(map[string]bool)
	var leads []model.Lead
	var places int

	// Walk result pages until the lead quota is filled or the provider
	// runs out of listings.
	for page := 1; len(leads) < s.MaxLeads; page++ {
		resp, err := s.Serper.Maps(ctx, serper.MapsRequest{Query: query, Num: num, Page: page})
		if err != nil {
			return eris.Wrap(err, "discover: maps search")
		}
		if page == 1 && len(resp.Places) == 0 {
			return eris.New("discover: no places returned")
		}
		places += len(resp.Places)

		for _, place := range resp.Places {
			if len(leads) >= s.MaxLeads {
				break
			}
			lead := model.Lead{
				Company:    place.Title,
				Address:    place.Address,
				City:       s.Location,
				PostalCode: extractPostalCode(place.Address),
				Country:    extractCountry(place.Address),
				Website:    place.Website,
				Phone:      place.PhoneNumber,
				Industry:   industry,
				AddedAt:    now().UTC(),
			}
			if lead.Company == "" || seen[lead.Key()] {
				continue
			}
			seen[lead.Key()] = true
			leads = append(leads, lead)
		}

		// A short page means the listings are exhausted.
		if len(resp.Places) < num {
			break
		}
	}

	zap.L().Info("discover: complete",
		zap.Int("places", places),
		zap.Int("leads", len(leads)),
	)
	return model.WriteDataset(s.DataPath, leads)
}

var postalCodeRe = regexp.MustCompile(`\b\d{5}\b`)

// extractPostalCode pulls a five-digit postal code out of a Maps address.
func extractPostalCode(address string) string {
	return postalCodeRe.FindString(address)
}

// extractCountry takes the last comma-separated component of the address.
func extractCountry(address string) string {
	if address == "" {
		return ""
	}
	parts := strings.Split(address, ",")
	country := strings.TrimSpace(parts[len(parts)-1])
	if fields := strings.Fields(country); len(fields) > 0 {
		return fields[len(fields)-1]
	}
	return ""
}

// genericSearchWords are filler terms that dilute a Maps query's industry
// tag; the cleaned 1-2 keyword form is what gets stamped on each lead.
var genericSearchWords = map[string]bool{
	"manufacturer": true, "manufacturers": true, "maker": true,
	"sale": true, "sales": true, "store": true, "shop": true, "stores": true,
	"supplier": true, "suppliers": true, "distributor": true, "distributors": true,
	"reseller": true, "resellers": true, "dealer": true, "dealers": true,
	"and": true, "of": true, "the": true, "in": true, "for": true,
}

// cleanIndustry reduces a raw search phrase to at most two significant
// keywords ("hot tub manufacturer sales" becomes "hot/tub").
func cleanIndustry(raw string) string {
	words := strings.Fields(strings.ToLower(raw))

	var keywords []string
	for _, w := range words {
		if !genericSearchWords[w] {
			keywords = append(keywords, w)
		}
	}

	switch {
	case len(keywords) >= 2:
		return keywords[0] + "/" + keywords[1]
	case len(keywords) == 1:
		return keywords[0]
	}

	// Everything was filler; keep the first word with any substance.
	for _, w := range words {
		if len(w) > 3 {
			return w
		}
	}
	if len(words) > 0 {
		return words[0]
	}
	return raw
}
