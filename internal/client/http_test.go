package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testQuery = query.Model{
	From: "Absence",
	Select: []models.DataExpression{
		{DisplayName: "Date", ExpressionAsQueryLanguage: "Date"},
		{DisplayName: "Id", ExpressionAsQueryLanguage: "AbsenceId", Hidden: true},
		{DisplayName: "Hours", ExpressionAsQueryLanguage: "Hours"},
	},
}

const reportJSON = `{
	"data": {
		"rawData": [["2025-01-06", 17, 7.5], ["2025-01-07", 18, 4]],
		"dataColumnIndexMap": {
			"0": {"displayName": "Date", "expressionAsQueryLanguage": "Date"},
			"1": {"displayName": "Id", "expressionAsQueryLanguage": "AbsenceId", "hidden": true},
			"2": {"displayName": "Hours", "expressionAsQueryLanguage": "Hours"}
		}
	},
	"metadata": {"numberOfColumns": 3, "numberOfLockedColumns": 1}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/", "secret-token", 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	_, err := NewHTTPClient("not a url", "", 0, nil)
	assert.Error(t, err)
}

func TestHTTPClient_GetReport(t *testing.T) {
	var got reportRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/report", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reportJSON)
	})

	data, err := c.GetReport(context.Background(), Request{OrgIDs: []string{"1001"}, Query: testQuery})

	require.NoError(t, err)
	assert.Equal(t, []string{"1001"}, got.OrgIDs)
	assert.Equal(t, "QUERY FROM Absence SELECT Date, AbsenceId, Hours", got.QueryText)

	require.Len(t, data.RawData, 2)
	assert.Equal(t, json.Number("7.5"), data.RawData[0][2])
	assert.Equal(t, "Hours", data.DataColumnIndexMap[2].DisplayName)
	assert.True(t, data.DataColumnIndexMap[1].Hidden)
	assert.Equal(t, 1, data.Metadata.NumberOfLockedColumns)
}

func TestHTTPClient_GetReportNestedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"rawData":[["A",8],["A",5]],"dataColumnIndexMap":{"0":{"displayName":"Location","expressionAsQueryLanguage":"LocationName"},"1":{"displayName":"Hours","expressionAsQueryLanguage":"Hours"}}},"metadata":{"numberOfColumns":2}}`)
	})

	data, err := c.GetReport(context.Background(), Request{Query: testQuery})

	require.NoError(t, err)
	require.Len(t, data.RawData, 2)
	assert.Equal(t, "A", data.RawData[1][0])
	assert.Len(t, data.DataColumnIndexMap, 2)
	assert.Equal(t, "LocationName", data.DataColumnIndexMap[0].ExpressionAsQueryLanguage)
	assert.Equal(t, 2, data.Metadata.NumberOfColumns)
}

func TestHTTPClient_GetReportWithoutData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"rawData":[["A",8]],"metadata":{"numberOfColumns":2}}`)
	})

	_, err := c.GetReport(context.Background(), Request{Query: testQuery})
	assert.Error(t, err)
}

func TestHTTPClient_ExportReport(t *testing.T) {
	var got reportRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/report/export", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "Date,Hours\n2025-01-06,7.5\n")
	})

	b, err := c.ExportReport(context.Background(), Request{Query: testQuery}, "absences.csv")

	require.NoError(t, err)
	assert.Equal(t, "Date,Hours\n2025-01-06,7.5\n", string(b))
	assert.Equal(t, "QUERY FROM Absence SELECT Date, Hours WITH (EXPORT)", got.QueryText)
	assert.Equal(t, "absences.csv", got.Filename)
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"json error", `{"message": "query is invalid", "code": "BAD_QUERY"}`, "query is invalid"},
		{"plain text", "upstream timeout", "upstream timeout"},
		{"empty body", "", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetReport(context.Background(), Request{Query: testQuery})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestHTTPClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetReport(ctx, Request{Query: testQuery})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
