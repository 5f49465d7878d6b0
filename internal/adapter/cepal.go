package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"econ-curator/internal/domain"
)

const defaultCEPALBaseURL = "https://api-cepalstat.cepal.org/cepalstat/api/v1"

// CEPALAdapter wraps the CEPALSTAT API: SDMX-style nested JSON where data
// rows are keyed by localized dimension names (Spanish country and year
// labels), which downstream standardization maps onto ISO codes.
type CEPALAdapter struct {
	client  *fetchClient
	baseURL string
	logger  *slog.Logger
}

// NewCEPALAdapter creates a CEPALSTAT adapter. An empty baseURL uses the
// public API.
func NewCEPALAdapter(client *fetchClient, baseURL string, logger *slog.Logger) *CEPALAdapter {
	if baseURL == "" {
		baseURL = defaultCEPALBaseURL
	}
	return &CEPALAdapter{client: client, baseURL: baseURL, logger: logger}
}

// Source implements SourceAdapter.
func (a *CEPALAdapter) Source() domain.Source { return domain.SourceCEPAL }

type cepalResponse struct {
	Body struct {
		Data []map[string]interface{} `json:"data"`
	} `json:"body"`
}

// Dimension keys CEPALSTAT uses across indicator families; tried in order.
var (
	cepalCountryKeys = []string{"País__ESTANDAR", "País", "country", "Country"}
	cepalYearKeys    = []string{"Años__ESTANDAR", "Años", "anio", "year", "Year"}
	cepalValueKeys   = []string{"value", "valor", "Value"}
)

// Fetch implements SourceAdapter. The reference is the numeric CEPALSTAT
// indicator id.
func (a *CEPALAdapter) Fetch(ctx context.Context, req FetchRequest) (*domain.RawTable, error) {
	u := fmt.Sprintf("%s/indicator/%s/data?lang=es&format=json", a.baseURL, req.Reference)

	var payload cepalResponse
	if err := a.client.getJSON(ctx, a.Source(), u, &payload); err != nil {
		return nil, err
	}

	data := payload.Body.Data
	if len(data) == 0 {
		a.logger.Debug("cepal fetch returned no data", "indicator", req.Reference)
		return newRawTable(a.Source(), req, []string{ColCountry, ColYear, ColValue}, nil), nil
	}

	countryKey := firstPresentKey(data[0], cepalCountryKeys)
	yearKey := firstPresentKey(data[0], cepalYearKeys)
	valueKey := firstPresentKey(data[0], cepalValueKeys)
	if countryKey == "" || valueKey == "" {
		return nil, domain.ErrParse("cepal: data rows carry no recognizable country/value keys (saw %v)", rowKeys(data[0]))
	}

	rows := make([][]string, 0, len(data))
	for _, item := range data {
		rows = append(rows, []string{
			stringifyCell(item[countryKey]),
			stringifyCell(item[yearKey]),
			stringifyCell(item[valueKey]),
		})
	}

	a.logger.Debug("cepal fetch complete", "indicator", req.Reference, "rows", len(rows))
	return newRawTable(a.Source(), req, []string{ColCountry, ColYear, ColValue}, rows), nil
}

func firstPresentKey(row map[string]interface{}, candidates []string) string {
	for _, k := range candidates {
		if _, ok := row[k]; ok {
			return k
		}
	}
	return ""
}

func rowKeys(row map[string]interface{}) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringifyCell renders a JSON cell value as its tabular string form.
func stringifyCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

var _ SourceAdapter = (*CEPALAdapter)(nil)
