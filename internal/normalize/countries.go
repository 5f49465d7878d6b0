package normalize

import "strings"

// countryAliases maps lowercased country names — Spanish and English
// variants, including the long official forms several upstream systems
// emit — onto ISO-3166-1 alpha-3 codes. Coverage is intentionally partial:
// unmapped names become the explicit unknown marker, never a guess.
var countryAliases = map[string]string{
	// Latin America and the Caribbean
	"argentina":                          "ARG",
	"bolivia":                            "BOL",
	"bolivia (estado plurinacional de)":  "BOL",
	"bolivia (plurinational state of)":   "BOL",
	"brasil":                             "BRA",
	"brazil":                             "BRA",
	"chile":                              "CHL",
	"colombia":                           "COL",
	"costa rica":                         "CRI",
	"cuba":                               "CUB",
	"ecuador":                            "ECU",
	"el salvador":                        "SLV",
	"guatemala":                          "GTM",
	"haiti":                              "HTI",
	"haití":                              "HTI",
	"honduras":                           "HND",
	"jamaica":                            "JAM",
	"méxico":                             "MEX",
	"mexico":                             "MEX",
	"nicaragua":                          "NIC",
	"panamá":                             "PAN",
	"panama":                             "PAN",
	"paraguay":                           "PRY",
	"perú":                               "PER",
	"peru":                               "PER",
	"puerto rico":                        "PRI",
	"república dominicana":               "DOM",
	"dominican republic":                 "DOM",
	"uruguay":                            "URY",
	"venezuela":                          "VEN",
	"venezuela (república bolivariana de)": "VEN",
	"venezuela (bolivarian republic of)":   "VEN",

	// Frequent comparators outside the region
	"alemania":       "DEU",
	"germany":        "DEU",
	"canadá":         "CAN",
	"canada":         "CAN",
	"china":          "CHN",
	"españa":         "ESP",
	"spain":          "ESP",
	"estados unidos": "USA",
	"united states":  "USA",
	"francia":        "FRA",
	"france":         "FRA",
	"italia":         "ITA",
	"italy":          "ITA",
	"japón":          "JPN",
	"japan":          "JPN",
	"portugal":       "PRT",
	"reino unido":    "GBR",
	"united kingdom": "GBR",
}

// alpha2ToAlpha3 covers the two-letter codes the IMF-style APIs emit.
var alpha2ToAlpha3 = map[string]string{
	"AR": "ARG", "BO": "BOL", "BR": "BRA", "CL": "CHL", "CO": "COL",
	"CR": "CRI", "CU": "CUB", "DO": "DOM", "EC": "ECU", "SV": "SLV",
	"GT": "GTM", "HT": "HTI", "HN": "HND", "JM": "JAM", "MX": "MEX",
	"NI": "NIC", "PA": "PAN", "PY": "PRY", "PE": "PER", "PR": "PRI",
	"UY": "URY", "VE": "VEN",
	"CA": "CAN", "CN": "CHN", "DE": "DEU", "ES": "ESP", "FR": "FRA",
	"GB": "GBR", "IT": "ITA", "JP": "JPN", "PT": "PRT", "US": "USA",
}

// knownAlpha3 is the set of valid alpha-3 codes accepted as-is.
var knownAlpha3 = buildKnownAlpha3()

func buildKnownAlpha3() map[string]bool {
	set := make(map[string]bool)
	for _, code := range countryAliases {
		set[code] = true
	}
	for _, code := range alpha2ToAlpha3 {
		set[code] = true
	}
	return set
}

// MapCountry standardizes a raw country value onto ISO-3166-1 alpha-3.
// Already-valid codes and the unknown marker pass through; localized names
// and alpha-2 codes are mapped; anything else reports ok=false and the
// caller substitutes the unknown marker.
func MapCountry(value string) (code string, ok bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", false
	}

	upper := strings.ToUpper(v)
	if len(upper) == 3 && knownAlpha3[upper] {
		return upper, true
	}
	if len(upper) == 2 {
		if mapped, found := alpha2ToAlpha3[upper]; found {
			return mapped, true
		}
	}
	if mapped, found := countryAliases[strings.ToLower(v)]; found {
		return mapped, true
	}
	return "", false
}
