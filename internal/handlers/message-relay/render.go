package messagerelay

import (
	"math"
	"strconv"
	"strings"

	"conversation-relay/internal/models"
)

const lineBreak = "<br />"

// RenderAnalysis turns the analysis keys of a dialog context into display
// markup. Sections come in the order entities, keywords, categories and are
// left out when their array is missing or empty.
func RenderAnalysis(ctx models.Context) string {
	var b strings.Builder

	var entities []models.Entity
	if ctx.Decode(models.ContextKeyEntities, &entities) && len(entities) > 0 {
		writeHeader(&b, "Entities")
		for _, e := range entities {
			writeLine(&b, e.Label, "score", e.Score)
		}
	}

	var keywords []models.Keyword
	if ctx.Decode(models.ContextKeyKeywords, &keywords) && len(keywords) > 0 {
		writeHeader(&b, "Keywords")
		for _, k := range keywords {
			writeLine(&b, k.Text, "relevance", k.Relevance)
		}
	}

	var categories []models.Category
	if ctx.Decode(models.ContextKeyCategories, &categories) && len(categories) > 0 {
		writeHeader(&b, "Categories")
		for _, c := range categories {
			writeLine(&b, c.Label, "score", c.Score)
		}
	}

	return b.String()
}

func writeHeader(b *strings.Builder, section string) {
	b.WriteString(lineBreak)
	b.WriteString("<strong>NLU API ")
	b.WriteString(section)
	b.WriteString(":</strong>")
	b.WriteString(lineBreak)
}

func writeLine(b *strings.Builder, display, measure string, value float64) {
	b.WriteString(display)
	b.WriteString(" (")
	b.WriteString(measure)
	b.WriteString(": ")
	b.WriteString(formatNumber(value))
	b.WriteString("),")
	b.WriteString(lineBreak)
}

// formatNumber prints the shortest round-trip digits, in exponent form only
// below 1e-6 and from 1e21 (1e-7, 1.5e+21), the way the web UI prints numbers.
func formatNumber(v float64) string {
	if abs := math.Abs(v); abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + exp[:1] + digits
}
