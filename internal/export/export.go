// Package export renders computed attendance results as human-readable
// tables, CSV, or JSON for operators working outside the API.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/guildops/bench-api/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	TableOut Format = "table"
	CSVOut   Format = "csv"
	JSONOut  Format = "json"
)

// ParseFormat validates a format name from a flag.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case TableOut, CSVOut, JSONOut:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options controls rendering across all writers.
type Options struct {
	Format    Format
	UseColors bool
	// Slots pads the forecast table to a fixed row count so the rendered
	// report keeps a stable shape week over week.
	Slots int
}

// WriteAttendance renders the season attendance grid: one row per player,
// one status column per game week.
func WriteAttendance(w io.Writer, rows []models.AttendanceRow, opts Options) error {
	weeks := weekColumns(rows)

	switch opts.Format {
	case JSONOut:
		return writeJSON(w, rows)
	case CSVOut:
		cw := csv.NewWriter(w)
		defer cw.Flush()
		header := append([]string{"player", "rate", "played_min", "bench_min", "possible_min"}, weeks...)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			rec := []string{
				row.Player,
				formatRate(row.Rate),
				strconv.FormatInt(row.PlayedMin, 10),
				strconv.FormatInt(row.BenchMin, 10),
				strconv.FormatInt(row.PossibleMin, 10),
			}
			for _, wk := range weeks {
				rec = append(rec, row.WeekStatus[wk])
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeAttendanceTable(w, rows, weeks, opts)
	}
}

func writeAttendanceTable(w io.Writer, rows []models.AttendanceRow, weeks []string, opts Options) error {
	table := tablewriter.NewWriter(w)

	table.Configure(func(cfg *tablewriter.Config) {
		// Auto-formatting would rewrite week IDs ("2024-07-09" becomes
		// "2024 - 07 - 09").
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	headers := append([]string{"Player", "Rate", "Played", "Bench"}, weeks...)
	table.Header(headers)

	statusColor := statusColorizer(opts.UseColors)

	var data [][]string
	for _, row := range rows {
		rec := []string{
			row.Player,
			formatRate(row.Rate),
			strconv.FormatInt(row.PlayedMin, 10),
			strconv.FormatInt(row.BenchMin, 10),
		}
		for _, wk := range weeks {
			rec = append(rec, statusColor(row.WeekStatus[wk]))
		}
		data = append(data, rec)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteForecast renders the "at least K attend" probability table.
func WriteForecast(w io.Writer, rows []models.ForecastRow, opts Options) error {
	switch opts.Format {
	case JSONOut:
		return writeJSON(w, rows)
	case CSVOut:
		cw := csv.NewWriter(w)
		defer cw.Flush()
		if err := cw.Write([]string{"min_players", "predicted", "actual", "delta"}); err != nil {
			return err
		}
		for _, row := range rows {
			rec := []string{
				strconv.Itoa(row.MinPlayers),
				formatProb(row.Predicted),
				formatProb(row.Actual),
				formatProb(row.Delta),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeForecastTable(w, rows, opts)
	}
}

func writeForecastTable(w io.Writer, rows []models.ForecastRow, opts Options) error {
	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	table.Header([]string{"At Least", "Predicted", "Actual", "Delta"})

	deltaColor := deltaColorizer(opts.UseColors)

	var data [][]string
	for _, row := range rows {
		data = append(data, []string{
			strconv.Itoa(row.MinPlayers),
			formatProb(row.Predicted),
			formatProb(row.Actual),
			deltaColor(row.Delta),
		})
	}
	for len(data) < opts.Slots {
		data = append(data, []string{"", "", "", ""})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteNights renders the per-night QA summary: envelope, break, halves, and
// the diagnostics operators review after each run.
func WriteNights(w io.Writer, summaries []models.NightSummary, opts Options) error {
	switch opts.Format {
	case JSONOut:
		return writeJSON(w, summaries)
	case CSVOut:
		cw := csv.NewWriter(w)
		defer cw.Flush()
		header := []string{"night_id", "pre_min", "post_min", "post_extension_min", "break", "largest_gap_min", "override_used", "not_on_roster"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, s := range summaries {
			rec := []string{
				s.NightID,
				strconv.FormatInt(s.PreMin, 10),
				strconv.FormatInt(s.PostMin, 10),
				strconv.FormatFloat(s.PostExtensionMin, 'f', 1, 64),
				formatBreak(s),
				strconv.FormatInt(s.LargestGapMin, 10),
				strconv.FormatBool(s.OverrideUsed),
				strconv.Itoa(len(s.NotOnRoster)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeNightsTable(w, summaries, opts)
	}
}

func writeNightsTable(w io.Writer, summaries []models.NightSummary, opts Options) error {
	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Formatting.AutoFormat = tw.Off
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	table.Header([]string{"Night", "Pre", "Post", "Ext", "Break", "Gap", "Override", "Unknown"})

	warn := warnColorizer(opts.UseColors)

	var data [][]string
	for _, s := range summaries {
		unknown := strconv.Itoa(len(s.NotOnRoster))
		if len(s.NotOnRoster) > 0 {
			unknown = warn(unknown)
		}
		data = append(data, []string{
			s.NightID,
			strconv.FormatInt(s.PreMin, 10),
			strconv.FormatInt(s.PostMin, 10),
			strconv.FormatFloat(s.PostExtensionMin, 'f', 1, 64),
			formatBreak(s),
			strconv.FormatInt(s.LargestGapMin, 10),
			strconv.FormatBool(s.OverrideUsed),
			unknown,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteRankings renders the season ranking, least benched first.
func WriteRankings(w io.Writer, rankings []models.RankingEntry, opts Options) error {
	switch opts.Format {
	case JSONOut:
		return writeJSON(w, rankings)
	case CSVOut:
		cw := csv.NewWriter(w)
		defer cw.Flush()
		if err := cw.Write([]string{"rank", "player", "bench_min", "played_min", "ratio"}); err != nil {
			return err
		}
		for _, r := range rankings {
			rec := []string{
				strconv.Itoa(r.Rank),
				r.Player,
				strconv.FormatInt(r.BenchMin, 10),
				strconv.FormatInt(r.PlayedMin, 10),
				formatRate(r.BenchToPlayedRatio),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	default:
		table := tablewriter.NewWriter(w)
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Header.Formatting.AutoFormat = tw.Off
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		table.Header([]string{"Rank", "Player", "Bench", "Played", "Ratio"})
		var data [][]string
		for _, r := range rankings {
			data = append(data, []string{
				strconv.Itoa(r.Rank),
				r.Player,
				strconv.FormatInt(r.BenchMin, 10),
				strconv.FormatInt(r.PlayedMin, 10),
				formatRate(r.BenchToPlayedRatio),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	}
}

// weekColumns returns every game week present in the rows, ascending.
func weekColumns(rows []models.AttendanceRow) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for wk := range row.WeekStatus {
			seen[wk] = true
		}
	}
	weeks := make([]string, 0, len(seen))
	for wk := range seen {
		weeks = append(weeks, wk)
	}
	sort.Strings(weeks)
	return weeks
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRate(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 2, 64)
}

func formatProb(p float64) string {
	return strconv.FormatFloat(p, 'f', 3, 64)
}

func formatBreak(s models.NightSummary) string {
	if s.BreakStartMs == nil || s.BreakEndMs == nil {
		return "-"
	}
	min := (*s.BreakEndMs - *s.BreakStartMs) / 60000
	return strconv.FormatInt(min, 10) + "m"
}

// statusColorizer colors the weekly status letters: played green, benched
// yellow, out red.
func statusColorizer(useColors bool) func(string) string {
	if !useColors {
		return func(s string) string { return s }
	}
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	return func(s string) string {
		switch s {
		case models.StatusPlayed:
			return green(s)
		case models.StatusOut:
			return red(s)
		case "":
			return s
		default:
			// Mixed letters still carry a bench or out component.
			return yellow(s)
		}
	}
}

func deltaColorizer(useColors bool) func(float64) string {
	if !useColors {
		return func(d float64) string { return formatProb(d) }
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	return func(d float64) string {
		if d < 0 {
			return red(formatProb(d))
		}
		return green(formatProb(d))
	}
}

func warnColorizer(useColors bool) func(...any) string {
	if !useColors {
		return fmt.Sprint
	}
	return color.New(color.FgYellow).SprintFunc()
}
