/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package impact computes dependent counts over the declared dependency
// graph for safe-removal and upgrade-blocking reasoning.
package impact

import (
	"sort"
	"strings"

	"github.com/jahfer/mcpm/pkg/mods"
)

// Report describes what depends on one platform mod.
type Report struct {
	// ProjectID is the analyzed platform mod.
	ProjectID string
	// Direct lists declarations that depend on the mod directly.
	Direct []mods.Declaration
	// Indirect lists dependents exactly one hop beyond Direct,
	// deduplicated and minus anything already in Direct. This is
	// intentionally not the full transitive closure.
	Indirect []mods.Declaration
}

// Total is the combined number of direct and indirect dependents.
func (r Report) Total() int {
	return len(r.Direct) + len(r.Indirect)
}

// SafeToRemove reports whether removing the mod breaks nothing.
func (r Report) SafeToRemove() bool {
	return r.Total() == 0
}

// Analyze computes the direct and one-hop-indirect dependents of a
// platform mod. For non-platform mods both sets are empty.
func Analyze(reg *mods.Registry, projectID string) Report {
	direct := reg.DependentsOf(projectID)

	inDirect := make(map[string]bool, len(direct)+1)
	inDirect[projectID] = true

	for _, d := range direct {
		inDirect[d.ProjectID] = true
	}

	var indirect []mods.Declaration

	seen := make(map[string]bool)

	for _, d := range direct {
		for _, dep := range reg.DependentsOf(d.ProjectID) {
			if inDirect[dep.ProjectID] || seen[dep.ProjectID] {
				continue
			}

			seen[dep.ProjectID] = true
			indirect = append(indirect, dep)
		}
	}

	return Report{ProjectID: projectID, Direct: direct, Indirect: indirect}
}

// Summary partitions the platform mods for the prune report.
type Summary struct {
	// RemovalCandidates are platform mods nothing depends on.
	RemovalCandidates []Report
	// Retained are the remaining platform mods, ranked by descending
	// dependent count.
	Retained []Report
}

// Summarize analyzes every platform mod in the registry.
func Summarize(reg *mods.Registry) Summary {
	var summary Summary

	for _, d := range reg.Declarations() {
		if !d.IsPlatform {
			continue
		}

		report := Analyze(reg, d.ProjectID)
		if report.SafeToRemove() {
			summary.RemovalCandidates = append(summary.RemovalCandidates, report)
		} else {
			summary.Retained = append(summary.Retained, report)
		}
	}

	sort.SliceStable(summary.Retained, func(i, j int) bool {
		return summary.Retained[i].Total() > summary.Retained[j].Total()
	})

	return summary
}

// TransitiveDependents walks the full dependent chain from a platform
// mod. The walk carries an explicit visited set keyed by project ID so
// it terminates even if the free-form depends_on lists form a cycle;
// detected cycles are returned as anomaly descriptions, not errors.
func TransitiveDependents(reg *mods.Registry, projectID string) ([]mods.Declaration, []string) {
	var (
		dependents []mods.Declaration
		anomalies  []string
	)

	visited := map[string]bool{projectID: true}
	onPath := map[string]bool{projectID: true}

	var path []string

	var walk func(id string)
	walk = func(id string) {
		path = append(path, id)
		defer func() { path = path[:len(path)-1] }()

		for _, dep := range reg.DependentsOf(id) {
			if onPath[dep.ProjectID] {
				anomalies = append(anomalies,
					"dependency cycle: "+strings.Join(append(append([]string{}, path...), dep.ProjectID), " -> "))
				continue
			}

			if visited[dep.ProjectID] {
				continue
			}

			visited[dep.ProjectID] = true
			dependents = append(dependents, dep)

			onPath[dep.ProjectID] = true
			walk(dep.ProjectID)
			onPath[dep.ProjectID] = false
		}
	}

	walk(projectID)

	return dependents, anomalies
}
