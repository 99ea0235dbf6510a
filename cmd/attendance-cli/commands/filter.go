package commands

import (
	"strings"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/checker"

	"github.com/antzucaro/matchr"
)

const subjectSimilarity = 0.85

func subjectMatches(name, query string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || strings.Contains(name, query) {
		return true
	}
	return matchr.JaroWinkler(name, query, false) >= subjectSimilarity
}

// filterReport keeps the subjects resembling `query`, the overall figures
// are recomputed over what remains.
func filterReport(report checker.Report, query string) checker.Report {
	var kept []attendance.SubjectSummary
	for _, s := range report.Subjects {
		if subjectMatches(s.Subject, query) {
			kept = append(kept, s)
		}
	}
	report.Subjects = kept
	report.Overall = attendance.Aggregate(kept)
	return report
}
