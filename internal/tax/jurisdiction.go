package tax

import (
	"strings"

	"github.com/gstbook-dev/gstbook/internal/model"
)

// Jurisdiction is either Domestic(state) or Foreign(country).
type Jurisdiction struct {
	domestic bool
	country  string
	state    string
}

// Domestic returns a jurisdiction inside the home country.
func Domestic(state string) Jurisdiction {
	return Jurisdiction{domestic: true, country: model.HomeCountry, state: strings.TrimSpace(state)}
}

// Foreign returns a jurisdiction outside the home country.
func Foreign(country string) Jurisdiction {
	return Jurisdiction{country: strings.TrimSpace(country)}
}

// Resolve maps raw invoice country/state fields to a Jurisdiction.
// The state is ignored for foreign countries.
func Resolve(country, state string) Jurisdiction {
	if model.IsHomeCountry(country) {
		return Domestic(state)
	}
	return Foreign(country)
}

// IsDomestic reports whether the jurisdiction is inside the home country.
func (j Jurisdiction) IsDomestic() bool { return j.domestic }

// Country returns the jurisdiction's country.
func (j Jurisdiction) Country() string { return j.country }

// State returns the state for domestic jurisdictions and "" otherwise.
func (j Jurisdiction) State() string { return j.state }

func (j Jurisdiction) String() string {
	if j.domestic {
		return "Domestic(" + j.state + ")"
	}
	return "Foreign(" + j.country + ")"
}
