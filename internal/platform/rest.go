package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"
)

// Query is a fluent builder for filtered row operations against a table.
// Filters accumulate; terminal methods (Get, Single, Insert, Update)
// execute the request.
type Query struct {
	c      *Client
	table  string
	params url.Values
}

// From starts a query against the given table.
func (c *Client) From(table string) *Query {
	return &Query{
		c:      c,
		table:  table,
		params: url.Values{},
	}
}

// Select restricts the returned columns ("*" for all).
func (q *Query) Select(cols string) *Query {
	q.params.Set("select", cols)
	return q
}

// Eq adds an equality filter on a column.
func (q *Query) Eq(col, val string) *Query {
	q.params.Add(col, "eq."+val)
	return q
}

// Neq adds an inequality filter on a column.
func (q *Query) Neq(col, val string) *Query {
	q.params.Add(col, "neq."+val)
	return q
}

// Or adds a disjunction of filter expressions, e.g.
// "and(sender_id.eq.a,recipient_id.eq.b),and(sender_id.eq.b,recipient_id.eq.a)".
func (q *Query) Or(expr string) *Query {
	q.params.Set("or", "("+expr+")")
	return q
}

// Order sorts the result by a column.
func (q *Query) Order(col string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", col+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", fmt.Sprintf("%d", n))
	return q
}

// Path returns the encoded request path for this query.
func (q *Query) Path() string {
	p := "/rest/v1/" + q.table
	if enc := q.params.Encode(); enc != "" {
		p += "?" + enc
	}
	return p
}

// Get executes the query and decodes the row list into out.
func (q *Query) Get(ctx context.Context, out any) error {
	return q.c.do(ctx, fasthttp.MethodGet, q.Path(), nil, out, nil)
}

// Single executes the query expecting exactly one row.
func (q *Query) Single(ctx context.Context, out any) error {
	headers := map[string]string{
		"Accept": "application/vnd.pgrst.object+json",
	}
	return q.c.do(ctx, fasthttp.MethodGet, q.Path(), nil, out, headers)
}

// Insert creates one row. The store assigns server-side columns
// (id, created_at); no representation is requested back.
func (q *Query) Insert(ctx context.Context, row any) error {
	headers := map[string]string{
		"Prefer": "return=minimal",
	}
	return q.c.doJSON(ctx, fasthttp.MethodPost, q.Path(), row, nil, headers)
}

// Update patches the rows matching the accumulated filters.
func (q *Query) Update(ctx context.Context, patch any) error {
	headers := map[string]string{
		"Prefer": "return=minimal",
	}
	return q.c.doJSON(ctx, fasthttp.MethodPatch, q.Path(), patch, nil, headers)
}

// BetweenFilter builds the two-party conversation disjunction used by
// history fetches: all rows where (sender=a AND recipient=b) OR
// (sender=b AND recipient=a).
func BetweenFilter(a, b string) string {
	return fmt.Sprintf("and(sender_id.eq.%s,recipient_id.eq.%s),and(sender_id.eq.%s,recipient_id.eq.%s)", a, b, b, a)
}
