package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"econ-curator/internal/domain"
)

func testClient() *fetchClient {
	return newFetchClient(5*time.Second, 1000, discardLogger())
}

func TestWorldBankAdapter_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"page":1,"pages":1,"per_page":2000,"total":2},
			[
				{"indicator":{"id":"NY.GDP.PCAP.CD","value":"GDP per capita"},
				 "country":{"value":"Argentina"},"countryiso3code":"ARG","date":"2010","value":10385.96},
				{"indicator":{"id":"NY.GDP.PCAP.CD","value":"GDP per capita"},
				 "country":{"value":"Brazil"},"countryiso3code":"BRA","date":"2010","value":null}
			]
		]`))
	}))
	defer srv.Close()

	a := NewWorldBankAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{
		Reference: "NY.GDP.PCAP.CD",
		Countries: []string{"ARG", "BRA"},
		StartYear: 2010,
		EndYear:   2020,
	})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/country/ARG;BRA/indicator/NY.GDP.PCAP.CD")
	assert.Contains(t, gotQuery, "date=2010%3A2020")
	assert.Equal(t, []string{ColCountry, ColYear, ColValue}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"ARG", "2010", "10385.96"}, table.Rows[0])
	assert.Equal(t, []string{"BRA", "2010", ""}, table.Rows[1])
}

func TestWorldBankAdapter_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"page":1}]`))
	}))
	defer srv.Close()

	a := NewWorldBankAdapter(testClient(), srv.URL, discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "X"})
	require.Error(t, err)
	assert.IsType(t, &domain.ParseError{}, err)
}

func TestIMFAdapter_Fetch_SingleSeriesObjectForm(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"CompactData":{"DataSet":{"Series":
			{"@REF_AREA":"AR","Obs":{"@TIME_PERIOD":"2015","@OBS_VALUE":"104.7"}}
		}}}`))
	}))
	defer srv.Close()

	a := NewIMFAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "IFS.PCPI_IX", Countries: []string{"AR"}})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/CompactData/IFS/A.AR.PCPI_IX")
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"AR", "2015", "104.7"}, table.Rows[0])
}

func TestIMFAdapter_Fetch_SplitReferenceForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"CompactData":{"DataSet":{"Series":[
			{"@REF_AREA":"MX","Obs":[
				{"@TIME_PERIOD":"2018","@OBS_VALUE":"135.2"},
				{"@TIME_PERIOD":"2019","@OBS_VALUE":"140.1"}
			]}
		]}}}`))
	}))
	defer srv.Close()

	a := NewIMFAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "PCPI_IX", Dataset: "IFS"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"MX", "2019", "140.1"}, table.Rows[1])
}

func TestIMFAdapter_MissingDatasetFamily(t *testing.T) {
	a := NewIMFAdapter(testClient(), "http://invalid.test", discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "PCPI_IX"})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestOECDAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"dataSets":[{"observations":{
				"0:0":[72.1],
				"1:1":[68.4]
			}}],
			"structure":{"dimensions":{"observation":[
				{"id":"LOCATION","values":[{"id":"MEX","name":"Mexico"},{"id":"CHL","name":"Chile"}]},
				{"id":"TIME_PERIOD","values":[{"id":"2019"},{"id":"2020"}]}
			]}}
		}`))
	}))
	defer srv.Close()

	a := NewOECDAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "STLABOUR"})
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.ElementsMatch(t, [][]string{
		{"MEX", "2019", "72.1"},
		{"CHL", "2020", "68.4"},
	}, table.Rows)
}

func TestOECDAdapter_NoDataSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dataSets":[]}`))
	}))
	defer srv.Close()

	a := NewOECDAdapter(testClient(), srv.URL, discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "STLABOUR"})
	require.Error(t, err)
	assert.IsType(t, &domain.ParseError{}, err)
}

func TestCEPALAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"body":{"data":[
			{"País__ESTANDAR":"Argentina","Años__ESTANDAR":"2015","value":"318.5"},
			{"País__ESTANDAR":"Bolivia (Estado Plurinacional de)","Años__ESTANDAR":"2015","value":201.3}
		]}}`))
	}))
	defer srv.Close()

	a := NewCEPALAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "2206"})
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Argentina", "2015", "318.5"}, table.Rows[0])
	assert.Equal(t, []string{"Bolivia (Estado Plurinacional de)", "2015", "201.3"}, table.Rows[1])
}

func TestCEPALAdapter_UnrecognizedKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"body":{"data":[{"dim_1":"x"}]}}`))
	}))
	defer srv.Close()

	a := NewCEPALAdapter(testClient(), srv.URL, discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "2206"})
	require.Error(t, err)
	assert.IsType(t, &domain.ParseError{}, err)
}

func TestDataHubAdapter_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gdp/datapackage.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"gdp","resources":[
			{"name":"gdp","format":"csv","path":"data/gdp.csv"}
		]}`))
	})
	mux.HandleFunc("/gdp/data/gdp.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Country Name,Country Code,Year,Value\nArgentina,ARG,2010,423627000000\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewDataHubAdapter(testClient(), srv.URL, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "gdp"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Country Name", "Country Code", "Year", "Value"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ARG", table.Rows[0][1])
}

func TestDataHubAdapter_NoCSVResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"gdp","resources":[{"name":"gdp","format":"xlsx","path":"x.xlsx"}]}`))
	}))
	defer srv.Close()

	a := NewDataHubAdapter(testClient(), srv.URL, discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "gdp"})
	require.Error(t, err)
	assert.IsType(t, &domain.ParseError{}, err)
}

func TestLocalFileAdapter_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wages.csv")
	require.NoError(t, os.WriteFile(path, []byte("country,year,value\nChile,2018,301.2\n"), 0o600))

	a := NewLocalFileAdapter(dir, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "wages.csv"})
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "year", "value"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Chile", "2018", "301.2"}, table.Rows[0])
}

func TestLocalFileAdapter_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wages.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"country":"Peru","year":2019,"value":88.1},{"country":"Peru","year":2020,"value":null}]`), 0o600))

	a := NewLocalFileAdapter(dir, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: "wages.json"})
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "value", "year"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Peru", "88.1", "2019"}, table.Rows[0])
	assert.Equal(t, []string{"Peru", "", "2020"}, table.Rows[1])
}

func TestLocalFileAdapter_MissingFile(t *testing.T) {
	a := NewLocalFileAdapter(t.TempDir(), discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "absent.csv"})
	require.Error(t, err)
	assert.IsType(t, &domain.SourceUnavailableError{}, err)
}

func TestLocalFileAdapter_EscapingRootRejected(t *testing.T) {
	a := NewLocalFileAdapter(t.TempDir(), discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: "../../etc/passwd"})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestLocalFileAdapter_AbsolutePathOutsideRootRejected(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "leak.csv")
	require.NoError(t, os.WriteFile(outside, []byte("a\n1\n"), 0o600))

	a := NewLocalFileAdapter(t.TempDir(), discardLogger())
	_, err := a.Fetch(context.Background(), FetchRequest{Reference: outside})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestLocalFileAdapter_AbsolutePathInsideRootAllowed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "wages.csv")
	require.NoError(t, os.WriteFile(path, []byte("country,year\nChile,2018\n"), 0o600))

	a := NewLocalFileAdapter(root, discardLogger())
	table, err := a.Fetch(context.Background(), FetchRequest{Reference: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "year"}, table.Columns)
}

func TestFetchClient_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out map[string]bool
	err := testClient().getJSON(context.Background(), domain.SourceWorldBank, srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, out["ok"])
}

func TestFetchClient_PermanentFailureDoesNotRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient().getJSON(context.Background(), domain.SourceWorldBank, srv.URL, &struct{}{})
	require.Error(t, err)
	assert.IsType(t, &domain.SourceUnavailableError{}, err)
	assert.Equal(t, 1, attempts)
}
