package attendance

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"attendance-backend/internal/components/chrono"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func date(day, month, year int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func newTestSummarizer(now time.Time) Summarizer {
	return NewSummarizer(DefaultPolicy, chrono.FixedTime(now), 30)
}

func TestParseDate(t *testing.T) {
	table := []struct {
		text     string
		expected time.Time
		ok       bool
	}{
		{text: "01-01-2024", expected: date(1, 1, 2024), ok: true},
		{text: "1-1-2024", expected: date(1, 1, 2024), ok: true},
		{text: " 29-02-2024 ", expected: date(29, 2, 2024), ok: true},
		{text: "31-02-2024", ok: false},
		{text: "29-02-2023", ok: false},
		{text: "2024-01-01", ok: false},
		{text: "13-13-2024", ok: false},
		{text: "", ok: false},
		{text: "Total", ok: false},
	}

	for _, row := range table {
		result, ok := ParseDate(row.text)
		require.Equal(t, row.ok, ok, row.text)
		if row.ok {
			require.Equal(t, row.expected, result, row.text)
		}
	}
}

func TestRecordPresent(t *testing.T) {
	require.True(t, Record{Status: "Present"}.Present())
	require.True(t, Record{Status: "PRESENT"}.Present())
	require.True(t, Record{Status: " present "}.Present())
	require.False(t, Record{Status: "Absent"}.Present())
	require.False(t, Record{Status: "Presently absent"}.Present())
	require.False(t, Record{Status: ""}.Present())
}

func TestSummarizeScenario(t *testing.T) {
	var records []Record
	for day := 1; day <= 10; day++ {
		status := "Present"
		if day == 4 || day == 9 {
			status = "Absent"
		}
		records = append(records, Record{Date: date(day, 1, 2024), Status: status})
	}
	// document order is not guaranteed to be chronological
	rand.New(rand.NewSource(1)).Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})

	summary := newTestSummarizer(date(15, 1, 2024)).Summarize("Mathematics", records)

	expected := SubjectSummary{
		Subject:      "Mathematics",
		StartDate:    date(1, 1, 2024),
		EndDate:      date(10, 1, 2024),
		TotalDays:    10,
		Present:      8,
		Absent:       2,
		Percentage:   80,
		CanSkip:      0,
		NeedToAttend: 0,
		Note:         NoteOK,
	}
	if diff := cmp.Diff(expected, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	require.False(t, summary.Degraded())
}

func TestSummarizeEndDateWarning(t *testing.T) {
	records := []Record{
		{Date: date(1, 1, 2024), Status: "Present"},
		{Date: date(10, 1, 2024), Status: "Present"},
	}

	table := []struct {
		now      time.Time
		expected bool
	}{
		{now: date(9, 2, 2024), expected: false},
		{now: date(9, 2, 2024).Add(23 * time.Hour), expected: false},
		{now: date(10, 2, 2024), expected: true},
		{now: date(1, 6, 2024), expected: true},
	}
	for _, row := range table {
		summary := newTestSummarizer(row.now).Summarize("Physics", records)
		require.Equal(t, row.expected, summary.EndDateWarning, row.now.String())
		require.Equal(t, 2, summary.TotalDays)
	}

	disabled := NewSummarizer(DefaultPolicy, chrono.FixedTime(date(1, 6, 2024)), 0)
	require.False(t, disabled.Summarize("Physics", records).EndDateWarning)
}

func TestPlaceholder(t *testing.T) {
	summary := Placeholder("Chemistry", NoteNoTable)
	require.True(t, summary.Degraded())
	require.Equal(t, SubjectSummary{Subject: "Chemistry", Note: NoteNoTable}, summary)

	require.Equal(t, Note("Fetch error: connection refused"), FetchErrorNote(fmt.Errorf("connection refused")))

	empty := newTestSummarizer(date(1, 1, 2024)).Summarize("Biology", nil)
	require.True(t, empty.Degraded())
	require.Zero(t, empty.TotalDays)
}

func TestAdvise(t *testing.T) {
	table := []struct {
		total, present        int
		canSkip, needToAttend int
	}{
		{total: 0, present: 0, canSkip: 0, needToAttend: 0},
		{total: 10, present: 8, canSkip: 0, needToAttend: 0},
		{total: 12, present: 9, canSkip: 0, needToAttend: 0},
		{total: 10, present: 10, canSkip: 3, needToAttend: 0},
		{total: 40, present: 36, canSkip: 8, needToAttend: 0},
		{total: 10, present: 7, canSkip: 0, needToAttend: 2},
		{total: 10, present: 0, canSkip: 0, needToAttend: 30},
		{total: 3, present: 2, canSkip: 0, needToAttend: 1},
		{total: 100, present: 74, canSkip: 0, needToAttend: 4},
	}

	for _, row := range table {
		canSkip, need := DefaultPolicy.Advise(row.total, row.present, RoundPercent(row.present, row.total))
		require.Equal(t, row.canSkip, canSkip, "can skip %d/%d", row.present, row.total)
		require.Equal(t, row.needToAttend, need, "need to attend %d/%d", row.present, row.total)
	}
}

func TestAdviseRoundingMode(t *testing.T) {
	nearest := Policy{Threshold: 0.75, Rounding: RoundNearest}
	// 8/0.75 - 10 = 0.67
	canSkip, _ := nearest.Advise(10, 8, 80)
	require.Equal(t, 1, canSkip)

	strict := Policy{Threshold: 0.8, Rounding: RoundFloor}
	_, need := strict.Advise(10, 7, 70)
	require.Equal(t, 5, need)
}

// every combination of up to 60 days must satisfy the advisory invariants.
func TestSummaryInvariants(t *testing.T) {
	summarizer := newTestSummarizer(date(1, 2, 2024))

	for total := 1; total <= 60; total++ {
		for present := 0; present <= total; present++ {
			records := make([]Record, total)
			for i := range records {
				status := "Absent"
				if i < present {
					status = "Present"
				}
				records[i] = Record{Date: date(1, 1, 2024).AddDate(0, 0, i%28), Status: status}
			}
			s := summarizer.Summarize("subject", records)

			require.Equal(t, s.TotalDays, s.Present+s.Absent)
			if s.Percentage >= 75 {
				require.Zero(t, s.NeedToAttend)
				require.GreaterOrEqual(t, s.CanSkip, 0)
				// skipping one more than advised must fall below the threshold
				require.Less(t, float64(s.Present)/float64(s.TotalDays+s.CanSkip+1), 0.75)
			} else {
				require.Zero(t, s.CanSkip)
				require.GreaterOrEqual(t, s.NeedToAttend, 1)
				reached := float64(s.Present+s.NeedToAttend) / float64(s.TotalDays+s.NeedToAttend)
				require.GreaterOrEqual(t, reached, 0.75)
			}
		}
	}
}

func TestAggregate(t *testing.T) {
	summarizer := newTestSummarizer(date(15, 1, 2024))
	ok := summarizer.Summarize("Mathematics", []Record{
		{Date: date(1, 1, 2024), Status: "Present"},
		{Date: date(2, 1, 2024), Status: "Present"},
		{Date: date(3, 1, 2024), Status: "Absent"},
	})
	other := summarizer.Summarize("Physics", []Record{
		{Date: date(1, 1, 2024), Status: "present"},
		{Date: date(2, 1, 2024), Status: "Absent"},
		{Date: date(3, 1, 2024), Status: "Absent"},
		{Date: date(4, 1, 2024), Status: "Absent"},
	})

	overall := Aggregate([]SubjectSummary{
		ok,
		Placeholder("History", NoteNoTable),
		other,
		Placeholder("Art", FetchErrorNote(fmt.Errorf("timeout"))),
	})
	require.Equal(t, Overall{TotalDays: 7, Present: 3, Percentage: 42.86}, overall)

	require.Equal(t, Overall{}, Aggregate(nil))
	require.Equal(t, Overall{}, Aggregate([]SubjectSummary{Placeholder("History", NoteNoRecords)}))
}

func TestRoundPercent(t *testing.T) {
	require.Equal(t, 0.0, RoundPercent(0, 0))
	require.Equal(t, 66.67, RoundPercent(2, 3))
	require.Equal(t, 33.33, RoundPercent(1, 3))
	require.Equal(t, 100.0, RoundPercent(5, 5))
	require.Equal(t, 80.0, RoundPercent(8, 10))
}

func TestParseRoundingMode(t *testing.T) {
	mode, err := ParseRoundingMode("")
	require.NoError(t, err)
	require.Equal(t, RoundFloor, mode)

	mode, err = ParseRoundingMode("nearest")
	require.NoError(t, err)
	require.Equal(t, RoundNearest, mode)
	require.Equal(t, "nearest", mode.String())

	_, err = ParseRoundingMode("ceil")
	require.Error(t, err)
}
