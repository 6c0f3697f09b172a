package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/analytics"
	"expensetracker/internal/log"
)

// loadDashboard fetches every record and aggregates it for the requested
// timeframe. noData is true when there is nothing stored yet.
func (s *Server) loadDashboard(w http.ResponseWriter, r *http.Request) (d analytics.Dashboard, tf analytics.Timeframe, noData, ok bool) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	tf, custom, err := ParseDashboardParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return analytics.Dashboard{}, "", false, false
	}

	records, err := s.expenses.FetchAll(ctx)
	if err != nil {
		log.LogError(ctx, logger, "Failed to load expenses", err, log.ErrorTypeDatabase, log.OpRead)
		InternalServerError("Error loading expenses").Write(w)
		return analytics.Dashboard{}, tf, false, false
	}

	d, err = analytics.BuildDashboard(records, tf, custom)
	switch {
	case errors.Is(err, analytics.ErrNoData):
		return analytics.Dashboard{Timeframe: tf}, tf, true, true
	case errors.Is(err, analytics.ErrInvalidRange):
		BadRequestError("Start date must not be after end date").Write(w)
		return analytics.Dashboard{}, tf, false, false
	case err != nil:
		log.LogError(ctx, logger, "Failed to build dashboard", err, log.ErrorTypeInternal, log.OpRead)
		InternalServerError("Error computing dashboard").Write(w)
		return analytics.Dashboard{}, tf, false, false
	}

	logger.DebugContext(ctx, "Dashboard computed",
		log.FieldTimeframe, string(tf),
		log.FieldRecords, d.Records)
	return d, tf, false, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, tf, noData, ok := s.loadDashboard(w, r)
	if !ok {
		return
	}

	view := dashboardView{
		page:       page{Title: "Dashboard", Active: "dashboard"},
		Timeframes: timeframeOptions(tf),
		Custom:     tf == analytics.Custom,
		Start:      r.URL.Query().Get("start"),
		End:        r.URL.Query().Get("end"),
		NoData:     noData,
		Dashboard:  d,
	}
	if !noData {
		view.Start = d.Range.Start.String()
		view.End = d.Range.End.String()
		view.Monthly = bars(d.Monthly)
		view.Weekly = bars(d.Weekly)
		view.Categories = categoryViews(d.Categories)
		view.PieStyle = pieGradient(d.Categories)
	}
	s.render(w, r, "dashboard.html", "", view)
}

type bucketJSON struct {
	Start string  `json:"start"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

type categoryJSON struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

type dashboardJSON struct {
	Timeframe  string         `json:"timeframe"`
	NoData     bool           `json:"no_data"`
	Start      string         `json:"start,omitempty"`
	End        string         `json:"end,omitempty"`
	Total      float64        `json:"total"`
	Last30Days float64        `json:"last_30_days"`
	Records    int            `json:"records"`
	Monthly    []bucketJSON   `json:"monthly"`
	Weekly     []bucketJSON   `json:"weekly"`
	Categories []categoryJSON `json:"categories"`
}

func bucketsJSON(in []analytics.Bucket) []bucketJSON {
	out := make([]bucketJSON, 0, len(in))
	for _, b := range in {
		out = append(out, bucketJSON{Start: b.Start.String(), Label: b.Label, Total: b.Total.Float(), Count: b.Count})
	}
	return out
}

func newDashboardJSON(d analytics.Dashboard, tf analytics.Timeframe, noData bool) dashboardJSON {
	out := dashboardJSON{
		Timeframe:  string(tf),
		NoData:     noData,
		Monthly:    []bucketJSON{},
		Weekly:     []bucketJSON{},
		Categories: []categoryJSON{},
	}
	if noData {
		return out
	}
	out.Start = d.Range.Start.String()
	out.End = d.Range.End.String()
	out.Total = d.Total.Float()
	out.Last30Days = d.Last30Days.Float()
	out.Records = d.Records
	out.Monthly = bucketsJSON(d.Monthly)
	out.Weekly = bucketsJSON(d.Weekly)
	for _, c := range d.Categories {
		out.Categories = append(out.Categories, categoryJSON{
			Category: c.Category.String(),
			Total:    c.Total.Float(),
			Count:    c.Count,
			Share:    c.Share,
		})
	}
	return out
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	d, tf, noData, ok := s.loadDashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newDashboardJSON(d, tf, noData))
}
