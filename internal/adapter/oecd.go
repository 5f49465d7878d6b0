package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"econ-curator/internal/domain"
)

const defaultOECDBaseURL = "https://stats.oecd.org/sdmx-json/data"

// OECDAdapter wraps the OECD SDMX-JSON API: nested dataSets/observations
// keyed by dimension index tuples, with the dimension members carried in a
// parallel structure block.
type OECDAdapter struct {
	client  *fetchClient
	baseURL string
	logger  *slog.Logger
}

// NewOECDAdapter creates an OECD adapter. An empty baseURL uses the public API.
func NewOECDAdapter(client *fetchClient, baseURL string, logger *slog.Logger) *OECDAdapter {
	if baseURL == "" {
		baseURL = defaultOECDBaseURL
	}
	return &OECDAdapter{client: client, baseURL: baseURL, logger: logger}
}

// Source implements SourceAdapter.
func (a *OECDAdapter) Source() domain.Source { return domain.SourceOECD }

type sdmxDimensionValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sdmxDimension struct {
	ID     string               `json:"id"`
	Values []sdmxDimensionValue `json:"values"`
}

type sdmxJSONResponse struct {
	DataSets []struct {
		Observations map[string][]*float64 `json:"observations"`
	} `json:"dataSets"`
	Structure struct {
		Dimensions struct {
			Observation []sdmxDimension `json:"observation"`
		} `json:"dimensions"`
	} `json:"structure"`
}

// Fetch implements SourceAdapter. The reference is the SDMX dataset code;
// a combined "DATASET.FILTER" reference uses the filter as the dimension
// selection, otherwise all dimensions are requested.
func (a *OECDAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	dataset, filter := req.Resolve()
	if dataset == "" {
		dataset, filter = filter, "all"
	}
	if filter == "" {
		filter = "all"
	}

	u := fmt.Sprintf("%s/%s/%s/all?dimensionAtObservation=allDimensions", a.baseURL, dataset, filter)
	if req.StartYear != 0 {
		u += fmt.Sprintf("&startTime=%d", req.StartYear)
	}
	if req.EndYear != 0 {
		u += fmt.Sprintf("&endTime=%d", req.EndYear)
	}

	var payload sdmxJSONResponse
	if err := a.client.getJSON(ctx, a.Source(), u, &payload); err != nil {
		return nil, err
	}
	if len(payload.DataSets) == 0 {
		return nil, domain.ErrParse("oecd: payload carries no dataSets")
	}

	dims := payload.Structure.Dimensions.Observation
	countryDim, timeDim := locateSDMXDimensions(dims)

	var rows [][]string
	for key, values := range payload.DataSets[0].Observations {
		indices, err := parseObservationKey(key, len(dims))
		if err != nil {
			return nil, domain.ErrParse("oecd: %v", err)
		}

		country := dimensionMember(dims, countryDim, indices)
		period := dimensionMember(dims, timeDim, indices)

		var value string
		if len(values) > 0 {
			value = formatValue(values[0])
		}
		rows = append(rows, []string{country, period, value})
	}

	a.logger.Debug("oecd fetch complete", "dataset", dataset, "rows", len(rows))
	return newRawTable(a.Source(), req, []string{ColCountry, ColYear, ColValue}, rows), nil
}

// locateSDMXDimensions finds the country and time dimension positions by
// their conventional SDMX ids.
func locateSDMXDimensions(dims []sdmxDimension) (country, timeDim int) {
	country, timeDim = -1, -1
	for i, d := range dims {
		switch strings.ToUpper(d.ID) {
		case "COU", "LOCATION", "REF_AREA", "COUNTRY":
			if country == -1 {
				country = i
			}
		case "TIME_PERIOD", "TIME", "YEAR":
			if timeDim == -1 {
				timeDim = i
			}
		}
	}
	return country, timeDim
}

// parseObservationKey splits an "i:j:k" observation key into dimension indices.
func parseObservationKey(key string, want int) ([]int, error) {
	parts := strings.Split(key, ":")
	if want > 0 && len(parts) != want {
		return nil, fmt.Errorf("observation key %q has %d indices, structure has %d dimensions", key, len(parts), want)
	}
	indices := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("observation key %q: %v", key, err)
		}
		indices[i] = n
	}
	return indices, nil
}

// dimensionMember resolves the member id at the given dimension position,
// or "" when the position is unknown.
func dimensionMember(dims []sdmxDimension, dim int, indices []int) string {
	if dim < 0 || dim >= len(dims) || dim >= len(indices) {
		return ""
	}
	values := dims[dim].Values
	idx := indices[dim]
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx].ID
}

var _ SourceAdapter = (*OECDAdapter)(nil)
