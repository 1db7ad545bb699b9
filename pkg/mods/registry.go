package mods

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// AmbiguousMatch records a declaration whose pattern matched more than
// one archive, with every matching filename so the caller can fix the
// pattern or the directory.
type AmbiguousMatch struct {
	Declaration Declaration
	Candidates  []string
}

// Registry holds the declared mod set and the outcome of matching it
// against the mods directory. It is rebuilt fresh each invocation;
// nothing is persisted between runs.
type Registry struct {
	decls []Declaration
	byID  map[string]Declaration

	installed []InstalledMod
	missing   []Declaration
	ambiguous []AmbiguousMatch

	depsOnce   sync.Once
	dependents map[string][]Declaration
}

// NewRegistry creates a registry over an already-validated declaration
// list.
func NewRegistry(decls []Declaration) *Registry {
	byID := make(map[string]Declaration, len(decls))
	for _, d := range decls {
		byID[d.ProjectID] = d
	}

	return &Registry{decls: decls, byID: byID}
}

// ScanDir matches every declaration against the archives in dir and
// extracts best-effort metadata for each single match. Missing and
// ambiguous declarations are recorded, not failed.
func (r *Registry) ScanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read mods directory %s", dir)
	}

	var candidates []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		candidates = append(candidates, filepath.Join(dir, e.Name()))
	}

	r.installed = nil
	r.missing = nil
	r.ambiguous = nil

	for _, d := range r.decls {
		result := Match(d, candidates)

		switch result.Outcome {
		case Found:
			mod := result.Mod
			meta := ExtractMetadata(mod.Filepath)
			mod.Version = meta.Version
			mod.MinecraftVersion = meta.MinecraftVersion
			r.installed = append(r.installed, mod)
		case Missing:
			r.missing = append(r.missing, d)
		case Ambiguous:
			r.ambiguous = append(r.ambiguous, AmbiguousMatch{Declaration: d, Candidates: result.Candidates})
		}
	}

	return nil
}

// Declarations returns the full declared mod set in declaration order.
func (r *Registry) Declarations() []Declaration {
	return r.decls
}

// Declaration looks up a declaration by project ID.
func (r *Registry) Declaration(projectID string) (Declaration, bool) {
	d, ok := r.byID[projectID]
	return d, ok
}

// Installed returns every declaration matched to exactly one archive.
func (r *Registry) Installed() []InstalledMod {
	return r.installed
}

// Missing returns declarations with no matching archive.
func (r *Registry) Missing() []Declaration {
	return r.missing
}

// Ambiguous returns declarations whose pattern matched several archives.
func (r *Registry) Ambiguous() []AmbiguousMatch {
	return r.ambiguous
}

// DependentsOf returns the declarations whose depends_on lists the given
// project ID. It is meaningful only for platform mods; for anything else
// it returns nil by convention. The index is built once per registry
// since the declaration list is immutable within a run.
func (r *Registry) DependentsOf(projectID string) []Declaration {
	d, ok := r.byID[projectID]
	if !ok || !d.IsPlatform {
		return nil
	}

	r.depsOnce.Do(func() {
		r.dependents = make(map[string][]Declaration)

		for _, decl := range r.decls {
			for _, dep := range decl.DependsOn {
				r.dependents[dep] = append(r.dependents[dep], decl)
			}
		}
	})

	return r.dependents[projectID]
}
