package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"econ-curator/internal/domain"
)

const defaultWorldBankBaseURL = "https://api.worldbank.org/v2"

// WorldBankAdapter wraps the World Bank indicators API: flat REST JSON
// where the response is a two-element array of page metadata and
// observations.
type WorldBankAdapter struct {
	client  *fetchClient
	baseURL string
	logger  *slog.Logger
}

// NewWorldBankAdapter creates a World Bank adapter. An empty baseURL uses
// the public API.
func NewWorldBankAdapter(client *fetchClient, baseURL string, logger *slog.Logger) *WorldBankAdapter {
	if baseURL == "" {
		baseURL = defaultWorldBankBaseURL
	}
	return &WorldBankAdapter{client: client, baseURL: baseURL, logger: logger}
}

// Source implements SourceAdapter.
func (a *WorldBankAdapter) Source() domain.Source { return domain.SourceWorldBank }

type wbObservation struct {
	Indicator struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"indicator"`
	Country struct {
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

// Fetch implements SourceAdapter. World Bank indicator codes are already
// combined ("NY.GDP.PCAP.CD"), so the reference is used whole.
func (a *WorldBankAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	countries := "all"
	if len(req.Countries) > 0 {
		countries = strings.Join(req.Countries, ";")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("per_page", "2000")
	if req.StartYear != 0 && req.EndYear != 0 {
		q.Set("date", fmt.Sprintf("%d:%d", req.StartYear, req.EndYear))
	}
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		a.baseURL, url.PathEscape(countries), url.PathEscape(req.Reference), q.Encode())

	var pages []json.RawMessage
	if err := a.client.getJSON(ctx, a.Source(), u, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, domain.ErrParse("worldbank: expected [metadata, observations] pair, got %d elements", len(pages))
	}

	var observations []wbObservation
	if err := json.Unmarshal(pages[1], &observations); err != nil {
		return nil, domain.ErrParse("worldbank: malformed observation list: %v", err)
	}

	rows := make([][]string, 0, len(observations))
	for _, obs := range observations {
		country := obs.CountryISO3
		if country == "" {
			country = obs.Country.Value
		}
		rows = append(rows, []string{country, obs.Date, formatValue(obs.Value)})
	}

	a.logger.Debug("worldbank fetch complete", "indicator", req.Reference, "rows", len(rows))
	return newRawTable(a.Source(), req, []string{ColCountry, ColYear, ColValue}, rows), nil
}

var _ SourceAdapter = (*WorldBankAdapter)(nil)
