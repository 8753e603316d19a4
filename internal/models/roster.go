package models

// RosterEntry defines a player's membership window. Nights outside the window
// never produce ledger rows for the player.
type RosterEntry struct {
	Main       string `json:"main"`
	JoinNight  string `json:"join_night,omitempty"`
	LeaveNight string `json:"leave_night,omitempty"`
	Active     bool   `json:"active"`
}

// WindowContains reports whether nightID falls inside the membership window.
// A missing bound is open: no join means "since forever", no leave means
// "still on the team". This is the single place that default applies.
func (r *RosterEntry) WindowContains(nightID string) bool {
	if r.JoinNight != "" && nightID < r.JoinNight {
		return false
	}
	if r.LeaveNight != "" && nightID > r.LeaveNight {
		return false
	}
	return true
}

// Alias maps an alternate character name to a roster main.
type Alias struct {
	Alt  string `json:"alt"`
	Main string `json:"main"`
}
