package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/config"
	"github.com/ludo-technologies/seqgate/internal/constants"
)

const lowSampleRunJSON = `{
	"instrument": "novaseq_SP",
	"read_length": 151,
	"samplesheet": [{"lane": 1, "sample_id": "S1", "index": "ACGTACGT"}],
	"sequencing_metrics": {
		"1": {
			"total_reads_pf": 900000000,
			"yield": 200000000000,
			"yield_undetermined": 2000000000,
			"reads": {"1": {"mean_error_rate": 0.4, "percent_q30": 91, "mean_percent_phix_aligned": 1}},
			"reads_per_sample": [{"sample_id": "S1", "cluster_count": 100000000}]
		}
	}
}`

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	monitor := t.TempDir()
	writeFile(t, filepath.Join(monitor, "run_low", constants.DataFileJSON), lowSampleRunJSON)

	odd := `{"instrument": "novaseq_SP", "read_length": 400, "sequencing_metrics": {}}`
	writeFile(t, filepath.Join(monitor, "run_odd", constants.DataFileJSON), odd)
	writeFile(t, filepath.Join(monitor, "run_broken", constants.DataFileJSON), "{")

	rules, err := config.DefaultQCConfig()
	require.NoError(t, err)

	srv := NewServer(ServerOptions{
		MonitorPath:   monitor,
		MaxConcurrent: 2,
		Reporter:      NewReporter(rules),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, monitor
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestServer_Healthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Runfolder(t *testing.T) {
	ts, _ := newTestServer(t)

	var body struct {
		RequestID  string `json:"request_id"`
		Runfolder  string `json:"runfolder"`
		ExitStatus int    `json:"exit_status"`
		Passed     bool   `json:"passed"`
		View       string `json:"view"`
		Output     struct {
			LaneReports map[string]map[string][]string `json:"lane reports"`
		} `json:"output"`
	}
	resp := getJSON(t, ts.URL+"/run_low", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, body.RequestID, resp.Header.Get(RequestIDHeader))
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, "run_low", body.Runfolder)
	assert.Equal(t, domain.ExitQCFailed, body.ExitStatus)
	assert.False(t, body.Passed)
	assert.Equal(t, domain.ViewIllumina, body.View)
	assert.Len(t, body.Output.LaneReports["1"]["reads_per_sample"], 1)
}

func TestServer_QueryOptions(t *testing.T) {
	ts, _ := newTestServer(t)

	var body ServerResponse
	body.Output = &domain.FlatOutput{}
	resp := getJSON(t, ts.URL+"/run_low?downgrade=reads_per_sample&view=basic_view", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ExitPass, body.ExitStatus)
	assert.Equal(t, domain.ViewBasic, body.View)
	assert.Equal(t, 1, body.Output.ReportCount())

	var closest ServerResponse
	resp = getJSON(t, ts.URL+"/run_odd?use_closest_read_length=true", &closest)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/run_missing", http.StatusNotFound},
		{"/run_odd", http.StatusInternalServerError},
		{"/run_broken", http.StatusUnprocessableEntity},
		{"/run_low?use_closest_read_length=maybe", http.StatusBadRequest},
		{"/run_low?view=fancy", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ServerError
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestServer_RequestOptionsKeepDefaults(t *testing.T) {
	srv := NewServer(ServerOptions{Defaults: domain.GatherOptions{DowngradeErrorsFor: []string{"yield"}}})
	req := httptest.NewRequest(http.MethodGet, "/run?downgrade=cluster_pf,%20error_rate", nil)

	opts, err := srv.requestOptions(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"yield", "cluster_pf", "error_rate"}, opts.DowngradeErrorsFor)
	assert.Equal(t, []string{"yield"}, srv.opts.Defaults.DowngradeErrorsFor)
}
