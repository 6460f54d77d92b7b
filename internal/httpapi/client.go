package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/roach88/chordkit/internal/autofill"
	"github.com/roach88/chordkit/internal/diagram"
	"github.com/roach88/chordkit/internal/retry"
	"github.com/roach88/chordkit/internal/store"
)

// StatusError is a non-throttling error response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// Client talks to a chord chart server.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListForItem returns the item's charts in order.
func (c *Client) ListForItem(ctx context.Context, itemID string) ([]store.Record, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(itemID)+"/chord-charts", nil, &raw); err != nil {
		return nil, err
	}
	return decodeRecordList(raw)
}

// SearchCommon returns common chords matching name.
func (c *Client) SearchCommon(ctx context.Context, name string) ([]store.Record, error) {
	var raw []json.RawMessage
	path := "/api/chord-charts/common/search?name=" + url.QueryEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeRecordList(raw)
}

// Create saves d as the item's last chart.
func (c *Client) Create(ctx context.Context, itemID string, d diagram.Diagram) (store.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/items/"+url.PathEscape(itemID)+"/chord-charts", d, &raw); err != nil {
		return store.Record{}, err
	}
	return decodeRecord(raw)
}

// Update replaces a chart's diagram.
func (c *Client) Update(ctx context.Context, id int64, d diagram.Diagram) (store.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/api/chord-charts/"+strconv.FormatInt(id, 10), d, &raw); err != nil {
		return store.Record{}, err
	}
	return decodeRecord(raw)
}

// Delete removes a chart.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/chord-charts/"+strconv.FormatInt(id, 10), nil, nil)
}

// Reorder sets the item's chart order.
func (c *Client) Reorder(ctx context.Context, itemID string, ids []int64) error {
	return c.do(ctx, http.MethodPut, "/api/items/"+url.PathEscape(itemID)+"/chord-charts/order", ids, nil)
}

// CopyToItems copies every chart of source to each target.
func (c *Client) CopyToItems(ctx context.Context, source string, targets []string) (store.CopyResult, error) {
	var resp copyResponse
	req := copyRequest{SourceItemID: source, TargetItemIDs: targets}
	if err := c.do(ctx, http.MethodPost, "/api/chord-charts/copy", req, &resp); err != nil {
		return store.CopyResult{}, err
	}
	return resp.Result, nil
}

// ListForItems returns the charts of several items keyed by item id.
func (c *Client) ListForItems(ctx context.Context, itemIDs []string) (map[string][]store.Record, error) {
	var raw map[string][]json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/chord-charts/batch", batchRequest{ItemIDs: itemIDs}, &raw); err != nil {
		return nil, err
	}
	out := make(map[string][]store.Record, len(raw))
	for item, list := range raw {
		recs, err := decodeRecordList(list)
		if err != nil {
			return nil, err
		}
		out[item] = recs
	}
	return out, nil
}

// DeleteMany removes several charts at once.
func (c *Client) DeleteMany(ctx context.Context, ids []int64) (store.DeleteResult, error) {
	var resp batchDeleteResponse
	if err := c.do(ctx, http.MethodPost, "/api/chord-charts/batch-delete", batchDeleteRequest{ChordIDs: ids}, &resp); err != nil {
		return store.DeleteResult{}, err
	}
	return resp.DeleteResult, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 400 {
		msg := errorMessage(data, resp.Status)
		if retry.IsRateLimitStatus(resp.StatusCode) {
			return &retry.RateLimitError{Status: resp.StatusCode, Message: msg}
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls the message out of an error body, falling back to the
// raw text and then the status line.
func errorMessage(data []byte, status string) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return status
}

func decodeRecordList(raw []json.RawMessage) ([]store.Record, error) {
	out := make([]store.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := decodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Source adapts a Client to autofill.Source.
type Source struct {
	Client *Client
}

var _ autofill.Source = Source{}

// ListForItem implements autofill.Source.
func (src Source) ListForItem(ctx context.Context, itemID string) ([]autofill.Candidate, error) {
	recs, err := src.Client.ListForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return candidates(recs), nil
}

// SearchCommon implements autofill.Source.
func (src Source) SearchCommon(ctx context.Context, name string) ([]autofill.Candidate, error) {
	recs, err := src.Client.SearchCommon(ctx, name)
	if err != nil {
		return nil, err
	}
	return candidates(recs), nil
}

func candidates(recs []store.Record) []autofill.Candidate {
	out := make([]autofill.Candidate, len(recs))
	for i, r := range recs {
		out[i] = autofill.Candidate{ID: r.ID, Order: r.Order, Title: r.Title, Data: r.Data}
	}
	return out
}
