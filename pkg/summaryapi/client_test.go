package summaryapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string, maxRetries int) Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	}, zap.NewNop())
}

func TestFetchSummaries(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/export_summaries", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		gotQuery = r.URL.Query()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"filters_applied": [{"label": "Generic Only", "value": "generic"}],
			"summary": [
				{"attributes": {"drug_name": "Aspirin", "total_results": 4, "filtered_results": 2, "variants": []}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	resp, err := client.FetchSummaries(context.Background(), []string{"Aspirin", "Ibuprofen"}, []string{"generic"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Aspirin", "Ibuprofen"}, gotQuery["drug_names[]"])
	assert.Equal(t, []string{"generic"}, gotQuery["filters[]"])
	require.Len(t, resp.Summary, 1)
	assert.Equal(t, "Aspirin", resp.Summary[0].Attributes.DrugName)
	require.Len(t, resp.FiltersApplied, 1)
	assert.Equal(t, "Generic Only", resp.FiltersApplied[0].Label)
}

func TestFetchSummariesRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"filters_applied": [], "summary": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	resp, err := client.FetchSummaries(context.Background(), []string{"Aspirin"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, resp.Summary)
}

func TestFetchSummariesExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	_, err := client.FetchSummaries(context.Background(), []string{"Aspirin"}, nil)
	assert.Error(t, err)
}

func TestFetchSummariesNoBaseURL(t *testing.T) {
	client := newTestClient("", 1)

	_, err := client.FetchSummaries(context.Background(), []string{"Aspirin"}, nil)
	assert.Error(t, err)
}

func TestFetchSummariesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	_, err := client.FetchSummaries(context.Background(), []string{"Aspirin"}, nil)
	assert.Error(t, err)
}
