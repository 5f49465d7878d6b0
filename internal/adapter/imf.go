package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"econ-curator/internal/domain"
)

const defaultIMFBaseURL = "http://dataservices.imf.org/REST/SDMX_JSON.svc"

// IMFAdapter wraps the IMF data services API: flat REST JSON keyed by a
// dataset family plus indicator code ("IFS.PCPI_IX").
type IMFAdapter struct {
	client  *fetchClient
	baseURL string
	logger  *slog.Logger
}

// NewIMFAdapter creates an IMF adapter. An empty baseURL uses the public API.
func NewIMFAdapter(client *fetchClient, baseURL string, logger *slog.Logger) *IMFAdapter {
	if baseURL == "" {
		baseURL = defaultIMFBaseURL
	}
	return &IMFAdapter{client: client, baseURL: baseURL, logger: logger}
}

// Source implements SourceAdapter.
func (a *IMFAdapter) Source() domain.Source { return domain.SourceIMF }

type imfObservation struct {
	TimePeriod string `json:"@TIME_PERIOD"`
	Value      string `json:"@OBS_VALUE"`
}

type imfSeries struct {
	RefArea string `json:"@REF_AREA"`
	// Obs is an object for a single observation and an array otherwise.
	Obs json.RawMessage `json:"Obs"`
}

type imfCompactData struct {
	CompactData struct {
		DataSet struct {
			// Series is an object for a single series and an array otherwise.
			Series json.RawMessage `json:"Series"`
		} `json:"DataSet"`
	} `json:"CompactData"`
}

// Fetch implements SourceAdapter. The reference must resolve to a dataset
// family and an indicator code; both the combined "IFS.PCPI_IX" form and
// the split form are accepted.
func (a *IMFAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	dataset, code := req.Resolve()
	if dataset == "" {
		return nil, domain.ErrValidation("imf: reference %q needs a dataset family (use \"FAMILY.CODE\")", req.Reference)
	}

	refArea := strings.Join(req.Countries, "+")
	u := fmt.Sprintf("%s/CompactData/%s/A.%s.%s", a.baseURL, dataset, refArea, code)
	sep := "?"
	if req.StartYear != 0 {
		u += fmt.Sprintf("%sstartPeriod=%d", sep, req.StartYear)
		sep = "&"
	}
	if req.EndYear != 0 {
		u += fmt.Sprintf("%sendPeriod=%d", sep, req.EndYear)
	}

	var payload imfCompactData
	if err := a.client.getJSON(ctx, a.Source(), u, &payload); err != nil {
		return nil, err
	}

	series, err := decodeOneOrMany[imfSeries](payload.CompactData.DataSet.Series)
	if err != nil {
		return nil, domain.ErrParse("imf: malformed series list: %v", err)
	}

	var rows [][]string
	for _, s := range series {
		observations, err := decodeOneOrMany[imfObservation](s.Obs)
		if err != nil {
			return nil, domain.ErrParse("imf: malformed observations for %s: %v", s.RefArea, err)
		}
		for _, obs := range observations {
			rows = append(rows, []string{s.RefArea, obs.TimePeriod, obs.Value})
		}
	}

	a.logger.Debug("imf fetch complete", "dataset", dataset, "indicator", code, "rows", len(rows))
	return newRawTable(a.Source(), req, []string{ColCountry, ColYear, ColValue}, rows), nil
}

// decodeOneOrMany tolerates the SDMX convention of flattening single-element
// arrays into bare objects.
func decodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var many []T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

var _ SourceAdapter = (*IMFAdapter)(nil)
