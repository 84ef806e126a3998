package ratings

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

// ExportFormat is one of the two byte-stream encodings export()
// supports (spec §4.E export).
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// exportRow is the flat shape written to both encodings: one skill's
// metrics plus every individual rating that fed them.
type exportRow struct {
	Metrics QualityMetrics `json:"metrics"`
	Ratings []Rating       `json:"ratings"`
}

// Export produces a byte stream of every skill's ratings and metrics,
// or a single skill's subset when skillName is non-empty (spec §4.E
// export).
func (s *Store) Export(format ExportFormat, skillName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var skillNames []string
	if skillName != "" {
		skillNames = []string{skillName}
	} else {
		rows, err := s.db.Query(`SELECT skill_name FROM quality_metrics ORDER BY skill_name`)
		if err != nil {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "listing skills for export")
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning skill name")
			}
			skillNames = append(skillNames, name)
		}
		if err := rows.Err(); err != nil {
			return nil, ctxerr.Wrap(ctxerr.IO, err, "iterating skills for export")
		}
	}

	var exportRows []exportRow
	for _, name := range skillNames {
		m, err := s.getMetricsLocked(name)
		if err != nil {
			if cat, ok := ctxerr.CategoryOf(err); ok && cat == ctxerr.NotFound {
				continue
			}
			return nil, err
		}
		reviews, err := s.recentReviewsLocked(name, 0)
		if err != nil {
			return nil, err
		}
		exportRows = append(exportRows, exportRow{Metrics: m, Ratings: reviews})
	}

	switch format {
	case ExportJSON:
		data, err := json.MarshalIndent(exportRows, "", "  ")
		if err != nil {
			return nil, ctxerr.Wrap(ctxerr.Parse, err, "encoding export as json")
		}
		return data, nil
	case ExportCSV:
		return exportCSV(exportRows)
	default:
		return nil, ctxerr.New(ctxerr.Invariant, "unknown export format").WithContext("format", format)
	}
}

func exportCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"skill_name", "avg_rating", "total_ratings", "helpful_percentage",
		"success_correlation_percentage", "token_efficiency_percentage", "usage_count",
		"user_hash", "stars", "was_helpful", "task_succeeded", "project_type", "review",
	}
	if err := w.Write(header); err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "writing csv header")
	}

	for _, row := range rows {
		tokenEff := ""
		if row.Metrics.TokenEfficiencyPercentage != nil {
			tokenEff = strconv.FormatFloat(*row.Metrics.TokenEfficiencyPercentage, 'f', -1, 64)
		}
		if len(row.Ratings) == 0 {
			record := []string{
				row.Metrics.SkillName, formatFloat(row.Metrics.AvgRating), strconv.Itoa(row.Metrics.TotalRatings),
				formatFloat(row.Metrics.HelpfulPercentage), formatFloat(row.Metrics.SuccessCorrelationPercentage),
				tokenEff, strconv.Itoa(row.Metrics.UsageCount), "", "", "", "", "", "",
			}
			if err := w.Write(record); err != nil {
				return nil, ctxerr.Wrap(ctxerr.IO, err, "writing csv row")
			}
			continue
		}
		for _, r := range row.Ratings {
			record := []string{
				row.Metrics.SkillName, formatFloat(row.Metrics.AvgRating), strconv.Itoa(row.Metrics.TotalRatings),
				formatFloat(row.Metrics.HelpfulPercentage), formatFloat(row.Metrics.SuccessCorrelationPercentage),
				tokenEff, strconv.Itoa(row.Metrics.UsageCount),
				r.UserHash, strconv.Itoa(r.Stars), strconv.FormatBool(r.WasHelpful), strconv.FormatBool(r.TaskSucceeded),
				r.ProjectType, r.Review,
			}
			if err := w.Write(record); err != nil {
				return nil, ctxerr.Wrap(ctxerr.IO, err, "writing csv row")
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "flushing csv writer")
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
