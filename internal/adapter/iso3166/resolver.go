// Package iso3166 resolves free-text country names to ISO 3166-1 alpha-3
// codes. It implements domain.CountryResolver on top of the embedded
// ISO dataset from biter777/countries, with a small alias table for
// spellings the GloHydroRes exports use that the dataset does not match
// verbatim.
package iso3166

import (
	"strings"

	countrydb "github.com/biter777/countries"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
)

// Resolver is a stateless, pure name→code lookup.
type Resolver struct{}

// NewResolver creates the production resolver.
func NewResolver() *Resolver { return &Resolver{} }

var _ domain.CountryResolver = (*Resolver)(nil)

// aliases maps lowercased dataset spellings to their alpha-3 codes where
// the ISO dataset's own matching falls short (renamed countries, short
// forms, multi-word names).
var aliases = map[string]string{
	"usa":                              "USA",
	"united states":                    "USA",
	"united states of america":         "USA",
	"uk":                               "GBR",
	"united kingdom":                   "GBR",
	"great britain":                    "GBR",
	"russia":                           "RUS",
	"south korea":                      "KOR",
	"north korea":                      "PRK",
	"vietnam":                          "VNM",
	"viet nam":                         "VNM",
	"laos":                             "LAO",
	"ivory coast":                      "CIV",
	"cote d'ivoire":                    "CIV",
	"congo":                            "COG",
	"republic of the congo":            "COG",
	"dr congo":                         "COD",
	"democratic republic of the congo": "COD",
	"syria":                            "SYR",
	"iran":                             "IRN",
	"venezuela":                        "VEN",
	"bolivia":                          "BOL",
	"tanzania":                         "TZA",
	"moldova":                          "MDA",
	"czech republic":                   "CZE",
	"czechia":                          "CZE",
	"turkey":                           "TUR",
	"turkiye":                          "TUR",
	"myanmar":                          "MMR",
	"burma":                            "MMR",
	"macedonia":                        "MKD",
	"north macedonia":                  "MKD",
	"taiwan":                           "TWN",
	"swaziland":                        "SWZ",
	"eswatini":                         "SWZ",
	"cape verde":                       "CPV",
	"east timor":                       "TLS",
	"timor-leste":                      "TLS",
	"brunei":                           "BRN",
}

// Resolve returns the alpha-3 code for a country name. Unrecognized names
// return ok=false; resolution never errors.
func (r *Resolver) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	if code, ok := aliases[strings.ToLower(name)]; ok {
		return code, true
	}

	code := countrydb.ByName(name)
	if code == countrydb.Unknown {
		return "", false
	}
	return code.Alpha3(), true
}
