package calendar

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
	"github.com/username/listing-calendar/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second

	sessionCookieName = "sessionid"
)

// Endpoint names used for logging and metrics
const (
	endpointCalendar   = "calendar"
	endpointUpdate     = "update"
	endpointBulkUpdate = "bulk_update"
	endpointListings   = "listings"
)

// Client is the listing calendar API client.
// Every call is sent exactly once; there are no retries.
type Client struct {
	baseURL       string
	kind          ListingKind
	listingID     int64
	token         string
	sessionCookie string
	httpClient    *http.Client
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// NewClient creates a client for one listing
func NewClient(baseURL string, kind ListingKind, listingID int64, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		kind:      kind,
		listingID: listingID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// UseAuth configures the bearer token and/or session cookie sent with every request
func (c *Client) UseAuth(token, sessionCookie string) {
	c.token = token
	c.sessionCookie = sessionCookie
}

// UseMetrics configures request metrics
func (c *Client) UseMetrics(m *metrics.Collector) {
	c.metrics = m
}

// SetTimeout overrides the HTTP timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
}

// Kind returns the listing kind the client was built for
func (c *Client) Kind() ListingKind {
	return c.kind
}

// FetchCalendar gets day records for the inclusive range start..end (YYYY-MM-DD)
func (c *Client) FetchCalendar(ctx context.Context, start, end string) (*CalendarResponse, error) {
	query := url.Values{}
	query.Set("start_date", start)
	query.Set("end_date", end)

	var resp CalendarResponse
	err := c.doRequest(ctx, endpointCalendar, http.MethodGet, c.listingPath("calendar/"), query, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar %s..%s: %w", start, end, err)
	}

	for i := range resp.Calendar {
		if invalid := resp.Calendar[i].InvalidFields(); len(invalid) > 0 {
			c.logger.Warn("Ignoring malformed day record fields",
				zap.String("date", resp.Calendar[i].Date),
				zap.Strings("fields", invalid))
		}
	}

	c.logger.Info("Calendar fetched",
		zap.String("listing_kind", c.kind.String()),
		zap.Int64("listing_id", c.listingID),
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.Int("records", len(resp.Calendar)))

	return &resp, nil
}

// UpdateDay updates availability and pricing of one date
func (c *Client) UpdateDay(ctx context.Context, req UpdateDayRequest) (*UpdateResponse, error) {
	var resp UpdateResponse
	err := c.doRequest(ctx, endpointUpdate, http.MethodPost, c.listingPath("calendar/update/"), nil, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", req.Date, err)
	}

	c.logger.Info("Date updated",
		zap.String("listing_kind", c.kind.String()),
		zap.Int64("listing_id", c.listingID),
		zap.String("date", req.Date),
		zap.Bool("is_available", req.IsAvailable),
		zap.Bool("is_blocked", req.IsBlocked),
		zap.Float64("price", req.Price))

	return &resp, nil
}

// BulkUpdate applies the same fields to every date of an inclusive range in one request.
// The range is forwarded as given; a reversed range is for the service to reject.
func (c *Client) BulkUpdate(ctx context.Context, req BulkUpdateRequest) (*UpdateResponse, error) {
	var resp UpdateResponse
	err := c.doRequest(ctx, endpointBulkUpdate, http.MethodPost, c.listingPath("calendar/bulk-update/"), nil, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk update %s..%s: %w", req.StartDate, req.EndDate, err)
	}

	c.logger.Info("Date range updated",
		zap.String("listing_kind", c.kind.String()),
		zap.Int64("listing_id", c.listingID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Int("dates_updated", resp.DatesUpdated))

	return &resp, nil
}

// ListListings returns the host's listings of the client's kind
func (c *Client) ListListings(ctx context.Context) ([]Listing, error) {
	var resp ListingsResponse
	path := fmt.Sprintf("/api/host/%ss/", c.kind)
	if err := c.doRequest(ctx, endpointListings, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", c.kind, err)
	}

	listings := resp.Accommodations
	if c.kind == Tour {
		listings = resp.Tours
	}

	c.logger.Info("Listings retrieved",
		zap.String("listing_kind", c.kind.String()),
		zap.Int("count", len(listings)))

	return listings, nil
}

func (c *Client) listingPath(suffix string) string {
	return fmt.Sprintf("/api/%s/%d/%s", c.kind, c.listingID, suffix)
}

// doRequest performs a single HTTP request and decodes the JSON envelope into result.
// Transport and decoding failures become *NetworkError, success=false becomes *ServiceError.
func (c *Client) doRequest(ctx context.Context, endpoint, method, path string, query url.Values, body interface{}, result envelope) error {
	started := time.Now()

	err := c.doRequestOnce(ctx, method, path, query, body, result)

	outcome := metrics.ResultOK
	if err != nil {
		outcome = metrics.ResultNetworkError
		if _, ok := err.(*ServiceError); ok {
			outcome = metrics.ResultServiceError
		}
		c.logger.Warn("Request failed",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
	}
	c.metrics.ObserveRequest(endpoint, outcome, time.Since(started))

	return err
}

func (c *Client) doRequestOnce(ctx context.Context, method, path string, query url.Values, body interface{}, result envelope) error {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &NetworkError{Op: "marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	endpointURL := c.baseURL + path
	if len(query) > 0 {
		endpointURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, bodyReader)
	if err != nil {
		return &NetworkError{Op: "create request", Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.sessionCookie})
	}

	c.logger.Debug("Sending request",
		zap.String("method", method),
		zap.String("url", endpointURL),
		zap.String("request_id", requestID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "HTTP request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read response body", Err: err}
	}

	// The service answers errors with a JSON body too (e.g. 400 {"error": "..."}),
	// so the envelope is decoded regardless of the status code.
	if err := json.Unmarshal(respBody, result); err != nil {
		return &NetworkError{
			Op:  "parse response",
			Err: fmt.Errorf("status %d: %w", resp.StatusCode, err),
		}
	}

	if !result.succeeded() || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    result.errorMessage(),
		}
	}

	return nil
}
