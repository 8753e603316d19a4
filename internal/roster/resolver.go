// Package roster resolves player names from combat logs or operator sheets
// to canonical roster mains.
package roster

import "strings"

// Shorten returns the display form of a name: the portion before its first
// realm suffix. Ledger rows are keyed by display names.
func Shorten(name string) string {
	base, _, _ := strings.Cut(name, "-")
	return strings.TrimSpace(base)
}

// Resolver maps arbitrary player-name strings to roster main display names.
//
// Each roster main is shortened to its display name (the part before the
// first "-"). A display name shared by two mains is ambiguous and never
// resolves automatically; colliding inputs are recorded as unresolved rather
// than guessed. Failed resolutions accumulate instead of erroring so one bad
// name cannot abort a night.
type Resolver struct {
	mainToDisplay map[string]string
	displayToMain map[string]string
	ambiguous     map[string]struct{}
	aliases       map[string]string

	// alt name -> raw roster target, and alt -> canonical main (empty when
	// the target could not be resolved).
	rawAltTargets  map[string]string
	altToCanonical map[string]string

	unresolved map[string]struct{}
}

// NewResolver builds a resolver from roster mains and an optional alt->main
// mapping. Aliases are resolved once, up front; an alias pointing at an
// ambiguous or unknown main records the target name (not the alias) as
// unresolved so operators see which roster entry needs fixing.
func NewResolver(mains []string, altToMain map[string]string) *Resolver {
	r := &Resolver{
		mainToDisplay:  make(map[string]string),
		displayToMain:  make(map[string]string),
		ambiguous:      make(map[string]struct{}),
		aliases:        make(map[string]string),
		rawAltTargets:  make(map[string]string),
		altToCanonical: make(map[string]string),
		unresolved:     make(map[string]struct{}),
	}

	counts := make(map[string]int)
	for _, main := range mains {
		if main == "" {
			continue
		}
		display := Shorten(main)
		if display == "" {
			continue
		}
		r.mainToDisplay[main] = display
		counts[display]++
	}

	for display, n := range counts {
		if n > 1 {
			r.ambiguous[display] = struct{}{}
		}
	}

	for main, display := range r.mainToDisplay {
		if _, amb := r.ambiguous[display]; amb {
			continue
		}
		r.displayToMain[display] = main
		if _, ok := r.aliases[main]; !ok {
			r.aliases[main] = display
		}
		if _, ok := r.aliases[display]; !ok {
			r.aliases[display] = display
		}
	}

	for alt, target := range altToMain {
		alt = strings.TrimSpace(alt)
		target = strings.TrimSpace(target)
		if alt == "" || target == "" {
			continue
		}
		r.rawAltTargets[alt] = target
		canonical, display := r.canonicalMainFor(target)
		r.altToCanonical[alt] = canonical
		if canonical == "" {
			continue
		}
		if _, ok := r.aliases[alt]; !ok {
			r.aliases[alt] = display
		}
		base := Shorten(alt)
		if base == "" {
			continue
		}
		if _, amb := r.ambiguous[base]; amb {
			continue
		}
		if _, ok := r.aliases[base]; !ok {
			r.aliases[base] = display
		}
	}

	return r
}

// Resolve returns the display name of the roster main for name, when it maps
// uniquely. Otherwise the name is recorded as unresolved and ok is false.
func (r *Resolver) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	if display, ok := r.lookupDisplay(name); ok {
		return display, true
	}

	if canonical, known := r.altToCanonical[name]; known {
		if canonical != "" {
			display := r.mainToDisplay[canonical]
			if _, amb := r.ambiguous[display]; display != "" && !amb {
				return display, true
			}
		}
		if target := r.rawAltTargets[name]; target != "" {
			r.unresolved[target] = struct{}{}
		} else {
			r.unresolved[name] = struct{}{}
		}
		return "", false
	}

	base := Shorten(name)
	if display, ok := r.lookupDisplay(base); ok {
		return display, true
	}

	if _, amb := r.ambiguous[base]; amb {
		r.unresolved[name] = struct{}{}
		return "", false
	}

	if target, known := r.rawAltTargets[base]; known && target != "" {
		r.unresolved[target] = struct{}{}
		return "", false
	}

	r.unresolved[name] = struct{}{}
	return "", false
}

// Unresolved returns every name recorded as not-on-roster so far, for the
// night's diagnostics.
func (r *Resolver) Unresolved() []string {
	out := make([]string, 0, len(r.unresolved))
	for name := range r.unresolved {
		out = append(out, name)
	}
	return out
}

// Displays returns the set of unambiguous roster main display names.
func (r *Resolver) Displays() map[string]struct{} {
	out := make(map[string]struct{}, len(r.displayToMain))
	for display := range r.displayToMain {
		out[display] = struct{}{}
	}
	return out
}

func (r *Resolver) lookupDisplay(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if display, ok := r.aliases[token]; ok {
		return display, true
	}
	if canonical, ok := r.displayToMain[token]; ok {
		display := r.mainToDisplay[canonical]
		if _, amb := r.ambiguous[display]; display != "" && !amb {
			return display, true
		}
	}
	return "", false
}

func (r *Resolver) canonicalMainFor(name string) (canonical, display string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	if display, ok := r.mainToDisplay[name]; ok {
		if _, amb := r.ambiguous[display]; amb {
			return "", ""
		}
		return name, display
	}

	if display, ok := r.lookupDisplay(name); ok {
		if canonical, ok := r.displayToMain[display]; ok {
			return canonical, display
		}
	}

	base := Shorten(name)
	if base == "" {
		return "", ""
	}
	if canonical, ok := r.displayToMain[base]; ok {
		display := r.mainToDisplay[canonical]
		if _, amb := r.ambiguous[display]; display != "" && !amb {
			return canonical, display
		}
	}
	return "", ""
}
