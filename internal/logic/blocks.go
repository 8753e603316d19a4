package logic

import (
	"sort"

	"github.com/guildops/bench-api/internal/models"
)

// DefaultGapBridgeMin is how much idle time between pulls still counts as
// one contiguous block: trash and setup time between boss attempts.
const DefaultGapBridgeMin = 10

// BuildBlocks collapses participation rows into contiguous per-player,
// per-half blocks. Rows are assigned to a half by comparing their midpoint
// against the break start; consecutive same-half rows merge when the gap
// between them is at most bridgeMs.
func BuildBlocks(rows []models.Participation, brk *models.Interval, bridgeMs int64) []models.Block {
	if len(rows) == 0 {
		return nil
	}

	type groupKey struct {
		player  string
		nightID string
	}
	groups := make(map[groupKey][]models.Participation)
	order := make([]groupKey, 0)
	for _, r := range rows {
		k := groupKey{player: r.Player, nightID: r.NightID}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].nightID != order[j].nightID {
			return order[i].nightID < order[j].nightID
		}
		return order[i].player < order[j].player
	})

	var blocks []models.Block
	for _, k := range order {
		rows := groups[k]
		sort.Slice(rows, func(i, j int) bool { return rows[i].StartMs < rows[j].StartMs })

		seq := 0
		var cur *models.Block
		flush := func() {
			if cur != nil {
				blocks = append(blocks, *cur)
				cur = nil
			}
		}
		for _, r := range rows {
			half := models.HalfPre
			if brk != nil {
				mid := (r.StartMs + r.EndMs) / 2
				if mid >= brk.StartMs {
					half = models.HalfPost
				}
			}
			if cur != nil && cur.Half == half && r.StartMs-cur.EndMs <= bridgeMs {
				if r.EndMs > cur.EndMs {
					cur.EndMs = r.EndMs
				}
				continue
			}
			flush()
			cur = &models.Block{
				Player:   k.player,
				NightID:  k.nightID,
				Half:     half,
				BlockSeq: seq,
				StartMs:  r.StartMs,
				EndMs:    r.EndMs,
			}
			seq++
		}
		flush()
	}
	return blocks
}
