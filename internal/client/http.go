package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/query"
	"github.com/sirupsen/logrus"
)

const (
	reportPath = "/api/report"
	exportPath = "/api/report/export"

	requestIDHeader = "X-Request-Id"
)

// APIError is a non 2xx answer from the report service
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("report service: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("report service: %s (status %d)", e.Message, e.StatusCode)
}

type reportRequest struct {
	OrgIDs    []string `json:"orgIds"`
	QueryText string   `json:"queryText"`
	Filename  string   `json:"filename,omitempty"`
}

type reportResponse struct {
	Data *struct {
		RawData            [][]any                       `json:"rawData"`
		DataColumnIndexMap map[int]models.DataExpression `json:"dataColumnIndexMap"`
	} `json:"data"`
	Metadata models.ReportMetadata `json:"metadata"`
}

// HTTPClient talks to the remote report service
type HTTPClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewHTTPClient creates a client for the service at baseURL authenticating
// with a bearer token
func NewHTTPClient(baseURL, token string, timeout time.Duration, log *logrus.Entry) (*HTTPClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid report service url: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &HTTPClient{
		baseURL:    u,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "client"),
	}, nil
}

// GetReport runs the live query
func (c *HTTPClient) GetReport(ctx context.Context, req Request) (*models.ReportData, error) {
	body := reportRequest{
		OrgIDs:    req.OrgIDs,
		QueryText: query.Build(req.Query),
	}

	respBody, err := c.post(ctx, reportPath, body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()

	var resp reportResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	if resp.Data == nil {
		return nil, errors.New("decode report: response has no data")
	}

	data := &models.ReportData{
		RawData:            resp.Data.RawData,
		DataColumnIndexMap: resp.Data.DataColumnIndexMap,
		Metadata:           resp.Metadata,
	}
	if data.DataColumnIndexMap == nil {
		data.DataColumnIndexMap = make(map[int]models.DataExpression)
	}
	return data, nil
}

// ExportReport runs the export query and returns the CSV bytes
func (c *HTTPClient) ExportReport(ctx context.Context, req Request, filename string) ([]byte, error) {
	body := reportRequest{
		OrgIDs:    req.OrgIDs,
		QueryText: query.Build(req.Query, query.WithExport()),
		Filename:  filename,
	}
	return c.post(ctx, exportPath, body)
}

func (c *HTTPClient) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.WithFields(logrus.Fields{"path": path, "request_id": requestID})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return nil, errors.Wrap(err, "report service request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read report service response")
	}

	log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
		"bytes":       len(respBody),
	}).Debug("report service responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || strings.TrimSpace(apiErr.Message) == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return nil, apiErr
	}

	return respBody, nil
}
