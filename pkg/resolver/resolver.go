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

// Package resolver computes the highest game version every managed mod
// supports and explains which mods block going higher.
package resolver

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/jahfer/mcpm/pkg/impact"
	"github.com/jahfer/mcpm/pkg/modrinth"
	"github.com/jahfer/mcpm/pkg/mods"
	"github.com/jahfer/mcpm/pkg/version"
)

// defaultWorkers bounds the parallel version queries.
const defaultWorkers = 4

// ModVersions is one installed mod's supported-version set.
type ModVersions struct {
	Mod mods.InstalledMod
	// Supported is ascending and deduplicated, release versions only.
	Supported []version.Version
	// Max is the last element of Supported, zero when the list is empty.
	Max version.Version
}

// BlockingMod is a mod whose own maximum supported version equals, and
// thus caps, the group's common version.
type BlockingMod struct {
	Mod mods.InstalledMod
	Max version.Version
	// Impact is set for platform mods so callers can quote how many
	// mods an upgrade block affects.
	Impact *impact.Report
}

// Resolution is the outcome of one compatibility computation.
type Resolution struct {
	PerMod []ModVersions

	// Common is the highest version every considered mod supports.
	Common    version.Version
	HasCommon bool

	// RequiredOnly is true when Common came from the optional-mod-aware
	// variant, i.e. optional mods were excluded from the intersection.
	RequiredOnly bool

	// Current is the configured game version the comparison ran against.
	Current          version.Version
	UpgradeAvailable bool

	// Blocking lists every mod capped at Common. Ties are not broken.
	Blocking []BlockingMod

	// NoKnownVersions lists mods whose supported-version set is empty.
	// Any such mod forces "no common version" for the whole group,
	// which is distinct from optional mods merely excluded by the
	// required-only variant.
	NoKnownVersions []mods.Declaration
}

// Resolver computes cross-mod version compatibility. One resolver is
// scoped to one registry and one provider instance.
type Resolver struct {
	provider modrinth.Provider
	registry *mods.Registry
	loader   string
	workers  int
}

// New creates a resolver for the given registry and provider.
func New(provider modrinth.Provider, registry *mods.Registry, loader string) *Resolver {
	return &Resolver{
		provider: provider,
		registry: registry,
		loader:   loader,
		workers:  defaultWorkers,
	}
}

// WithWorkers overrides the parallel query bound.
func (r *Resolver) WithWorkers(workers int) *Resolver {
	if workers > 0 {
		r.workers = workers
	}

	return r
}

// Resolve queries supported versions for every installed mod and
// computes the common-version decision against the current game
// version. Any provider failure aborts the whole computation; no
// partial intersection is ever reported.
func (r *Resolver) Resolve(ctx context.Context, current version.Version) (*Resolution, error) {
	installed := r.registry.Installed()

	perMod, err := r.fetchAll(ctx, installed)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{PerMod: perMod, Current: current}

	for _, mv := range perMod {
		if len(mv.Supported) == 0 {
			resolution.NoKnownVersions = append(resolution.NoKnownVersions, mv.Mod.Declaration)
		}
	}

	considered := perMod
	common, ok := commonVersion(considered)

	// The optional-aware variant only runs when the unrestricted
	// computation yields no usable upgrade, never as the default.
	if !usableUpgrade(common, ok, current) {
		required := requiredOnly(perMod)

		if len(required) < len(perMod) {
			if requiredCommon, requiredOK := commonVersion(required); usableUpgrade(requiredCommon, requiredOK, current) {
				considered = required
				common, ok = requiredCommon, requiredOK
				resolution.RequiredOnly = true
			}
		}
	}

	resolution.Common = common
	resolution.HasCommon = ok
	resolution.UpgradeAvailable = ok && current.Less(common)

	if ok {
		resolution.Blocking = r.blockingMods(considered, common)
	}

	return resolution, nil
}

// fetchAll queries the provider for every installed mod through a
// bounded worker pool. The intersection cannot proceed until every
// query has completed, so this is a full barrier. Failures are
// collected cooperatively and combined so the report is exhaustive.
func (r *Resolver) fetchAll(ctx context.Context, installed []mods.InstalledMod) ([]ModVersions, error) {
	perMod := make([]ModVersions, len(installed))
	fetchErrs := make([]error, len(installed))

	var wg sync.WaitGroup

	sem := make(chan struct{}, r.workers)

	for i, mod := range installed {
		wg.Add(1)

		go func(i int, mod mods.InstalledMod) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			supported, err := r.provider.SupportedVersions(ctx, mod.Declaration.ProjectID, r.loader)
			if err != nil {
				fetchErrs[i] = errors.Wrapf(err, "supported versions of %s", mod.Declaration.ProjectID)
				return
			}

			mv := ModVersions{Mod: mod, Supported: supported}
			if last, ok := version.Max(supported); ok {
				mv.Max = last
			}

			perMod[i] = mv
		}(i, mod)
	}

	wg.Wait()

	if combined := errors.Join(fetchErrs...); combined != nil {
		return nil, errors.Wrap(combined, "version compatibility check aborted")
	}

	return perMod, nil
}

// blockingMods returns every mod whose own maximum equals the common
// version. Platform blockers get an impact report attached.
func (r *Resolver) blockingMods(considered []ModVersions, common version.Version) []BlockingMod {
	var blocking []BlockingMod

	for _, mv := range considered {
		if mv.Max.IsZero() || !mv.Max.Equal(common) {
			continue
		}

		b := BlockingMod{Mod: mv.Mod, Max: mv.Max}

		if mv.Mod.Declaration.IsPlatform {
			report := impact.Analyze(r.registry, mv.Mod.Declaration.ProjectID)
			b.Impact = &report
		}

		blocking = append(blocking, b)
	}

	return blocking
}

// commonVersion intersects the supported sets and returns the highest
// member. With no mods there is nothing to intersect and no result.
func commonVersion(perMod []ModVersions) (version.Version, bool) {
	if len(perMod) == 0 {
		return version.Version{}, false
	}

	lists := make([][]version.Version, len(perMod))
	for i, mv := range perMod {
		lists[i] = mv.Supported
	}

	return version.Max(version.Intersect(lists...))
}

// requiredOnly filters out optional mods.
func requiredOnly(perMod []ModVersions) []ModVersions {
	var required []ModVersions

	for _, mv := range perMod {
		if !mv.Mod.Declaration.Optional {
			required = append(required, mv)
		}
	}

	return required
}

// usableUpgrade reports whether a common version both exists and moves
// the server forward.
func usableUpgrade(common version.Version, ok bool, current version.Version) bool {
	return ok && current.Less(common)
}
