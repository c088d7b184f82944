package warehouse

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"github.com/ayyoubmarroun/pykemen/internal/config"
	"github.com/ayyoubmarroun/pykemen/internal/throttle"
)

// fakeBigQuery serves the subset of the BigQuery v2 REST surface the client uses
type fakeBigQuery struct {
	t  *testing.T
	mu sync.Mutex

	jobs         []*bq.Job
	runningPolls int
	polls        int
	errorResult  *bq.ErrorProto
	jobErrors    []*bq.ErrorProto

	pages      []*bq.GetQueryResultsResponse
	pageTokens []string

	tables   map[string]*bq.Table
	datasets map[string]*bq.Dataset
}

func newFakeBigQuery(t *testing.T) *fakeBigQuery {
	return &fakeBigQuery{
		t:        t,
		tables:   map[string]*bq.Table{},
		datasets: map[string]*bq.Dataset{},
	}
}

func (f *fakeBigQuery) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bigquery/v2/projects/{project}/jobs", f.insertJob)
	mux.HandleFunc("GET /bigquery/v2/projects/{project}/jobs/{job}", f.getJob)
	mux.HandleFunc("GET /bigquery/v2/projects/{project}/queries/{job}", f.queryResults)
	mux.HandleFunc("POST /bigquery/v2/projects/{project}/datasets", f.insertDataset)
	mux.HandleFunc("POST /bigquery/v2/projects/{project}/datasets/{dataset}/tables", f.insertTable)
	mux.HandleFunc("GET /bigquery/v2/projects/{project}/datasets/{dataset}/tables/{table}", f.getTable)
	mux.HandleFunc("DELETE /bigquery/v2/projects/{project}/datasets/{dataset}/tables/{table}", f.deleteTable)
	return mux
}

func (f *fakeBigQuery) reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(f.t, json.NewEncoder(w).Encode(body))
}

func (f *fakeBigQuery) apiError(w http.ResponseWriter, status int, message string) {
	f.reply(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": message},
	})
}

func (f *fakeBigQuery) insertJob(w http.ResponseWriter, r *http.Request) {
	var job bq.Job
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&job))

	f.mu.Lock()
	f.jobs = append(f.jobs, &job)
	f.mu.Unlock()

	job.Status = &bq.JobStatus{State: "PENDING"}
	f.reply(w, http.StatusOK, job)
}

func (f *fakeBigQuery) getJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.polls++
	state := "RUNNING"
	if f.polls > f.runningPolls {
		state = "DONE"
	}
	f.mu.Unlock()

	status := &bq.JobStatus{State: state}
	if state == "DONE" {
		status.ErrorResult = f.errorResult
		status.Errors = f.jobErrors
	}
	f.reply(w, http.StatusOK, &bq.Job{
		JobReference: &bq.JobReference{ProjectId: r.PathValue("project"), JobId: r.PathValue("job")},
		Status:       status,
	})
}

func (f *fakeBigQuery) queryResults(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("pageToken")

	f.mu.Lock()
	f.pageTokens = append(f.pageTokens, token)
	f.mu.Unlock()

	i := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		require.NoError(f.t, err)
		i = n
	}
	f.reply(w, http.StatusOK, f.pages[i])
}

func (f *fakeBigQuery) insertDataset(w http.ResponseWriter, r *http.Request) {
	var ds bq.Dataset
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&ds))

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.datasets[ds.DatasetReference.DatasetId]; ok {
		f.apiError(w, http.StatusConflict, "Already Exists: Dataset")
		return
	}
	f.datasets[ds.DatasetReference.DatasetId] = &ds
	f.reply(w, http.StatusOK, ds)
}

func (f *fakeBigQuery) insertTable(w http.ResponseWriter, r *http.Request) {
	var table bq.Table
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&table))

	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.PathValue("dataset") + "." + table.TableReference.TableId
	if _, ok := f.tables[key]; ok {
		f.apiError(w, http.StatusConflict, "Already Exists: Table")
		return
	}
	f.tables[key] = &table
	f.reply(w, http.StatusOK, table)
}

func (f *fakeBigQuery) getTable(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	table, ok := f.tables[r.PathValue("dataset")+"."+r.PathValue("table")]
	f.mu.Unlock()

	if !ok {
		f.apiError(w, http.StatusNotFound, "Not found: Table")
		return
	}
	f.reply(w, http.StatusOK, table)
}

func (f *fakeBigQuery) deleteTable(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.PathValue("dataset") + "." + r.PathValue("table")
	if _, ok := f.tables[key]; !ok {
		f.apiError(w, http.StatusNotFound, "Not found: Table")
		return
	}
	delete(f.tables, key)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeBigQuery) lastJob() *bq.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.jobs)
	return f.jobs[len(f.jobs)-1]
}

func newTestClient(t *testing.T, fake *fakeBigQuery) *Client {
	t.Helper()

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	cfg := config.Default().Warehouse
	cfg.ProjectID = "acme"

	client, err := NewClient(context.Background(), cfg,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		option.WithEndpoint(server.URL+"/bigquery/v2/"),
		option.WithoutAuthentication())
	require.NoError(t, err)

	client.SetPoller(&throttle.Poller{Sleep: func(context.Context, time.Duration) error { return nil }})
	return client
}
