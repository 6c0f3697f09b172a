// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the expense form body, the View & Export filter and the dashboard timeframe.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
)

// maxBodyBytes caps what NewRequestBodyParser reads from a request.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseInput reads the Add Expense fields from a parsed body. An empty date
// selects today. Problems are reported as *core.ValidationError so callers can map
// them to 422.
func ParseExpenseInput(p *RequestBodyParser, today core.Date) (core.NewExpense, error) {
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return core.NewExpense{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}

	date := today
	if raw := p.Get("date"); raw != "" {
		date, err = core.ParseDate(raw)
		if err != nil {
			return core.NewExpense{}, &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
		}
	}

	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.NewExpense{}, &core.ValidationError{Field: "category", Err: err}
	}

	e := core.NewExpense{
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
		Notes:    p.Get("notes"),
	}
	return e, e.Validate()
}

// errBadQuery marks query parameters that cannot be parsed.
var errBadQuery = errors.New("bad query parameter")

// parseOptionalDate returns the zero Date for an empty value.
func parseOptionalDate(query url.Values, key string) (core.Date, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errBadQuery, key, raw)
	}
	return d, nil
}

// ParseFilter reads the View & Export selection from query parameters:
// start, end, repeated category and q. Without category values the filter applies
// no category restriction unless the form marks itself as submitted with
// filtered=1, in which case an empty selection matches nothing.
func ParseFilter(query url.Values) (analytics.Filter, error) {
	var f analytics.Filter
	var err error

	if f.Start, err = parseOptionalDate(query, "start"); err != nil {
		return analytics.Filter{}, err
	}
	if f.End, err = parseOptionalDate(query, "end"); err != nil {
		return analytics.Filter{}, err
	}

	raw := query["category"]
	if len(raw) > 0 || query.Get("filtered") == "1" {
		f.Categories = make([]core.Category, 0, len(raw))
		for _, c := range raw {
			if c = sanitizeInput(c); c != "" {
				f.Categories = append(f.Categories, core.Category(c))
			}
		}
	}

	f.Search = stripControl(query.Get("q"))
	return f, nil
}

// ParseDashboardParams reads timeframe, start and end. start/end only matter for
// the custom timeframe.
func ParseDashboardParams(query url.Values) (analytics.Timeframe, analytics.Range, error) {
	tf, err := analytics.ParseTimeframe(query.Get("timeframe"))
	if err != nil {
		return "", analytics.Range{}, fmt.Errorf("%w: %v", errBadQuery, err)
	}

	var custom analytics.Range
	if tf == analytics.Custom {
		if custom.Start, err = parseOptionalDate(query, "start"); err != nil {
			return "", analytics.Range{}, err
		}
		if custom.End, err = parseOptionalDate(query, "end"); err != nil {
			return "", analytics.Range{}, err
		}
	}
	return tf, custom, nil
}
