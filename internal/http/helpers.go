package http

import (
	"fmt"
	"html/template"
	"strings"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
)

// categoryColors are assigned to category slices in display order.
var categoryColors = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#9c755f",
}

func colorAt(i int) string {
	return categoryColors[i%len(categoryColors)]
}

// sanitizeInput removes control characters except tab, newline and carriage return
// and trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and line breaks.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// percent returns part/whole scaled to 0..100, or 0 when whole is not positive.
func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// pieGradient builds the conic-gradient for the category pie. The values are
// generated here from fixed colors and numbers, so marking them safe CSS is sound.
func pieGradient(cats []analytics.CategoryTotal) template.CSS {
	if len(cats) == 0 {
		return template.CSS("background: #e5e7eb")
	}
	var b strings.Builder
	b.WriteString("background: conic-gradient(")
	from := 0.0
	for i, c := range cats {
		to := from + c.Share*100
		if i == len(cats)-1 {
			to = 100
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %.2f%% %.2f%%", colorAt(i), from, to)
		from = to
	}
	b.WriteString(")")
	return template.CSS(b.String())
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Display() },
	"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
	"width": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"date":  func(d core.Date) string { return d.String() },
}
