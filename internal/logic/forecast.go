package logic

import "github.com/guildops/bench-api/internal/models"

// ForecastConfig tunes the attendance probability table.
type ForecastConfig struct {
	// BaselineRate is the assumed per-player attendance used for the
	// "predicted" column, sanity-checking whether the roster trends better
	// or worse than a flat assumption.
	BaselineRate float64
	// MinPlayers is the smallest roster count worth reporting on.
	MinPlayers int
	// Slots fixes the number of table rows regardless of roster size, so
	// the rendered report keeps a stable shape.
	Slots int
}

// AttendanceDistribution computes the Poisson-binomial distribution over the
// number of attendees: dist[k] is the probability that exactly k of the
// players attend, each treated as an independent Bernoulli trial with their
// own rate. O(n²) dynamic-programming convolution.
func AttendanceDistribution(rates []float64) []float64 {
	dp := make([]float64, len(rates)+1)
	dp[0] = 1.0
	for _, r := range rates {
		for k := len(rates); k >= 1; k-- {
			dp[k] = dp[k]*(1-r) + dp[k-1]*r
		}
		dp[0] *= 1 - r
	}
	return dp
}

// AtLeast converts a distribution into its suffix sums: out[k] is the
// probability that at least k players attend. out[0] is exactly 1.
func AtLeast(dist []float64) []float64 {
	out := make([]float64, len(dist))
	tail := 0.0
	for k := len(dist) - 1; k >= 0; k-- {
		tail += dist[k]
		out[k] = tail
	}
	out[0] = 1.0
	return out
}

// ForecastRows builds the "at least K attend" table from measured
// per-player rates, alongside the fixed-baseline prediction. Rows run from
// cfg.MinPlayers up to the roster size, capped at cfg.Slots rows; an empty
// roster yields no rows.
func ForecastRows(rates []float64, cfg ForecastConfig) []models.ForecastRow {
	n := len(rates)
	if n == 0 || n < cfg.MinPlayers {
		return nil
	}

	actual := AtLeast(AttendanceDistribution(rates))

	baseline := make([]float64, n)
	for i := range baseline {
		baseline[i] = cfg.BaselineRate
	}
	predicted := AtLeast(AttendanceDistribution(baseline))

	var rows []models.ForecastRow
	for k := cfg.MinPlayers; k <= n; k++ {
		if cfg.Slots > 0 && len(rows) >= cfg.Slots {
			break
		}
		rows = append(rows, models.ForecastRow{
			MinPlayers: k,
			Predicted:  predicted[k],
			Actual:     actual[k],
			Delta:      actual[k] - predicted[k],
		})
	}
	return rows
}

// AttendanceRates extracts the measured per-player rates feeding the
// forecast; players with no possible minutes are skipped rather than
// counted as zero.
func AttendanceRates(rows []models.AttendanceRow) []float64 {
	rates := make([]float64, 0, len(rows))
	for _, row := range rows {
		if row.Rate == nil {
			continue
		}
		r := *row.Rate
		if r > 1 {
			r = 1
		}
		rates = append(rates, r)
	}
	return rates
}
