// Package roam reads a remote graph through its datalog query API.
package roam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"blockgallery/internal/graph"
)

const appURL = "https://roamresearch.com"

type Options struct {
	APIURL string
	Graph  string
	Token  string
	// RPS caps the request rate against the API. Zero means no limit.
	RPS        float64
	HTTPClient *http.Client
}

type Client struct {
	apiURL     string
	graph      string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Graph) == "" {
		return nil, fmt.Errorf("roam graph name is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("%w: api token is required", graph.ErrUnauthorized)
	}
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.roamresearch.com"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}
	return &Client{
		apiURL:     apiURL,
		graph:      opts.Graph,
		token:      opts.Token,
		httpClient: hc,
		limiter:    limiter,
	}, nil
}

type queryRequest struct {
	Query string `json:"query"`
	Args  []any  `json:"args,omitempty"`
}

type queryResponse struct {
	Result  [][]any `json:"result"`
	Message string  `json:"message"`
}

// Query runs one datalog query and returns the result tuples.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([][]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(queryRequest{Query: query, Args: args})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/api/graph/%s/q", c.apiURL, url.PathEscape(c.graph))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	// Authorization is dropped when the API redirects to a peer host.
	req.Header.Set("X-Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graph.ErrQuery, err)
	}
	defer resp.Body.Close()
	slog.Debug("roam query", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", graph.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", graph.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", graph.ErrQuery, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", graph.ErrQuery, err)
	}
	return out.Result, nil
}

func (c *Client) ScanImageBlocks(ctx context.Context) ([]graph.BlockStamp, error) {
	rows, err := c.Query(ctx, scanQuery)
	if err != nil {
		return nil, err
	}
	stamps := make([]graph.BlockStamp, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		uid := asString(row[0])
		if uid == "" {
			continue
		}
		stamps = append(stamps, graph.BlockStamp{UID: uid, CreatedAt: asInt(row[1])})
	}
	return stamps, nil
}

func (c *Client) Block(ctx context.Context, uid string) (graph.Block, error) {
	rows, err := c.Query(ctx, blockQuery, uid)
	if err != nil {
		return graph.Block{}, err
	}
	if len(rows) == 0 || len(rows[0]) < 3 {
		return graph.Block{}, fmt.Errorf("%w: %s", graph.ErrNotFound, uid)
	}
	row := rows[0]
	return graph.Block{
		UID:       uid,
		Text:      asString(row[0]),
		PageTitle: asString(row[1]),
		CreatedAt: graph.Created(asInt(row[2])),
	}, nil
}

// Neighborhood runs the parent, children and sibling lookups. Each lookup
// failing on its own only leaves its part empty.
func (c *Client) Neighborhood(ctx context.Context, uid string) (graph.Neighborhood, error) {
	var n graph.Neighborhood
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if rows, err := c.Query(ctx, parentQuery, uid); err != nil {
		keep(fmt.Errorf("parent of %s: %w", uid, err))
	} else if len(rows) > 0 && len(rows[0]) > 0 {
		n.ParentText = asString(rows[0][0])
	}

	if rows, err := c.Query(ctx, childrenQuery, uid); err != nil {
		keep(fmt.Errorf("children of %s: %w", uid, err))
	} else {
		n.ChildrenText = orderedText(rows, func(order int64) bool { return true })
	}

	if rows, err := c.Query(ctx, siblingsQuery, uid); err != nil {
		keep(fmt.Errorf("siblings of %s: %w", uid, err))
	} else if len(rows) > 0 && len(rows[0]) >= 3 {
		own := asInt(rows[0][2])
		n.SiblingsText = orderedText(rows, func(order int64) bool {
			return order == own-1 || order == own+1
		})
	}

	if firstErr != nil && n.ParentText == "" && len(n.ChildrenText) == 0 && len(n.SiblingsText) == 0 {
		return graph.Neighborhood{}, firstErr
	}
	return n, nil
}

// SourceURL points at the block in the web app.
func (c *Client) SourceURL(ctx context.Context, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", fmt.Errorf("%w: empty uid", graph.ErrNotFound)
	}
	return fmt.Sprintf("%s/#/app/%s/page/%s", appURL, url.PathEscape(c.graph), url.PathEscape(uid)), nil
}

type orderedRow struct {
	order int64
	text  string
}

func orderedText(rows [][]any, keep func(order int64) bool) []string {
	items := make([]orderedRow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		order := asInt(row[0])
		if !keep(order) {
			continue
		}
		items = append(items, orderedRow{order: order, text: asString(row[1])})
	}
	slices.SortFunc(items, func(a, b orderedRow) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.text)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case int64:
		return n
	}
	return 0
}
