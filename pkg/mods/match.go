package mods

import (
	"path/filepath"
)

// Outcome tags the result of matching a declaration against the
// archives discovered in the mods directory.
type Outcome int

const (
	// Found means exactly one archive matched.
	Found Outcome = iota
	// Missing means no archive matched; the mod is reported as not
	// installed and excluded from compatibility work.
	Missing
	// Ambiguous means two or more archives matched; the mod is excluded
	// and all matching filenames are reported.
	Ambiguous
)

// String returns the outcome name for reports.
func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Missing:
		return "missing"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// InstalledMod is a declaration matched to exactly one archive, with
// best-effort metadata extracted from the archive itself.
type InstalledMod struct {
	Declaration Declaration
	// Version is the mod's own version, or Unknown.
	Version string
	// MinecraftVersion is the declared game version constraint, or Unknown.
	MinecraftVersion string
	Filename         string
	Filepath         string
}

// MatchResult is the three-way outcome of Match. Callers branch on
// Outcome instead of relying on error control flow.
type MatchResult struct {
	Outcome Outcome
	// Mod is populated only for Found. Metadata fields are filled in by
	// the registry scan, not by Match.
	Mod InstalledMod
	// Candidates holds every matching filename for Ambiguous.
	Candidates []string
}

// Match tests a declaration's filename pattern against candidate paths.
// The match is a case-insensitive regexp test of each candidate's base
// name. Zero matches yield Missing, two or more yield Ambiguous.
func Match(d Declaration, candidates []string) MatchResult {
	re, err := d.compilePattern()
	if err != nil {
		// Patterns are validated at load time; an unloadable pattern
		// cannot match anything.
		return MatchResult{Outcome: Missing}
	}

	var matched []string

	for _, candidate := range candidates {
		if re.MatchString(filepath.Base(candidate)) {
			matched = append(matched, candidate)
		}
	}

	switch len(matched) {
	case 0:
		return MatchResult{Outcome: Missing}
	case 1:
		return MatchResult{
			Outcome: Found,
			Mod: InstalledMod{
				Declaration:      d,
				Version:          Unknown,
				MinecraftVersion: Unknown,
				Filename:         filepath.Base(matched[0]),
				Filepath:         matched[0],
			},
		}
	default:
		names := make([]string, len(matched))
		for i, m := range matched {
			names[i] = filepath.Base(m)
		}

		return MatchResult{Outcome: Ambiguous, Candidates: names}
	}
}
