package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// RESTOptions configures the hosted PostgREST client.
type RESTOptions struct {
	BaseURL string
	APIKey  string
	// RPS caps outbound requests; zero disables limiting.
	RPS        float64
	HTTPClient *http.Client
	Now        func() time.Time
}

// REST talks to a PostgREST-compatible endpoint. Requests are made once;
// failures surface to the caller unchanged.
type REST struct {
	base    *url.URL
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// HTTPError is a non-2xx answer from the hosted backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend http %d: %s", e.Status, e.Body)
}

func NewREST(ctx context.Context, opts RESTOptions) (*REST, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL %q", opts.BaseURL)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.APIKey != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.APIKey,
			TokenType:   "Bearer",
		}))
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &REST{base: base, apiKey: opts.APIKey, client: client, limiter: limiter, now: now}, nil
}

func (r *REST) Select(ctx context.Context, q Query) ([]Row, error) {
	if err := CheckTable(q.Table); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("select", "*")
	if !q.IncludeDeleted {
		params.Set(ColDeleted, "eq.false")
	}
	for _, col := range sortedKeys(q.Eq) {
		if err := CheckColumn(col); err != nil {
			return nil, err
		}
		params.Set(col, "eq."+textValue(q.Eq[col]))
	}
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = ColCreatedAt
	}
	if err := CheckColumn(orderBy); err != nil {
		return nil, err
	}
	dir := "asc"
	if q.Desc {
		dir = "desc"
	}
	params.Set("order", fmt.Sprintf("%s.%s,id.%s", orderBy, dir, dir))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	var rows []Row
	if err := r.do(ctx, http.MethodGet, q.Table, params, nil, &rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func (r *REST) Get(ctx context.Context, table, id string) (Row, error) {
	rows, err := r.Select(ctx, Query{Table: table, Eq: map[string]any{ColID: id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return rows[0], nil
}

func (r *REST) Insert(ctx context.Context, table string, row Row) (Row, error) {
	if err := CheckTable(table); err != nil {
		return nil, err
	}
	body := stripMeta(row)
	id := row.ID()
	if id == "" {
		id = uuid.NewString()
	}
	now := r.now().Format(time.RFC3339Nano)
	body[ColID] = id
	body[ColVersion] = 1
	body[ColCreatedAt] = now
	body[ColUpdatedAt] = now
	body[ColDeleted] = false

	var rows []Row
	if err := r.do(ctx, http.MethodPost, table, nil, body, &rows); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusConflict {
			return nil, fmt.Errorf("%s %s: %w", table, id, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if len(rows) == 0 {
		return body, nil
	}
	return rows[0], nil
}

func (r *REST) Update(ctx context.Context, table, id string, expectedVersion int64, patch Row) (Row, error) {
	if err := CheckTable(table); err != nil {
		return nil, err
	}
	body := stripMeta(patch)
	body[ColVersion] = expectedVersion + 1
	body[ColUpdatedAt] = r.now().Format(time.RFC3339Nano)

	params := url.Values{}
	params.Set(ColID, "eq."+id)
	params.Set(ColVersion, "eq."+strconv.FormatInt(expectedVersion, 10))
	params.Set(ColDeleted, "eq.false")

	var rows []Row
	if err := r.do(ctx, http.MethodPatch, table, params, body, &rows); err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	if len(rows) > 0 {
		return rows[0], nil
	}
	current, err := r.Get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	return nil, &ConflictError{Table: table, ID: id, Current: current}
}

func (r *REST) Delete(ctx context.Context, table, id string) error {
	if err := CheckTable(table); err != nil {
		return err
	}
	params := url.Values{}
	params.Set(ColID, "eq."+id)
	params.Set(ColDeleted, "eq.false")
	body := Row{ColDeleted: true, ColUpdatedAt: r.now().Format(time.RFC3339Nano)}

	var rows []Row
	if err := r.do(ctx, http.MethodPatch, table, params, body, &rows); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (r *REST) RPC(ctx context.Context, fn string, args map[string]any, out any) error {
	if err := CheckColumn(fn); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := r.do(ctx, http.MethodPost, "rpc/"+fn, nil, args, out); err != nil {
		return fmt.Errorf("rpc %s: %w", fn, err)
	}
	return nil
}

func (r *REST) do(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	u := *r.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
