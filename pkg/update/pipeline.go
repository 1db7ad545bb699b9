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

// Package update implements the staged, all-or-nothing mod update
// pipeline: download, verify, back up, apply.
package update

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/jahfer/mcpm/pkg/modrinth"
	"github.com/jahfer/mcpm/pkg/mods"
	"github.com/jahfer/mcpm/pkg/version"
)

// ErrChecksumMismatch marks a staged download whose SHA-512 digest does
// not equal the registry-published hash. The file is deleted before the
// error is reported; an unverified file is never considered for
// installation.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// State is the pipeline's lifecycle position.
type State int

const (
	// StateStaging covers artifact resolution, download and
	// verification into the private staging area.
	StateStaging State = iota
	// StateVerified means every mod staged and verified successfully.
	StateVerified
	// StateBackedUp means the pre-apply backup completed in full.
	StateBackedUp
	// StateApplied means the live mods directory holds the staged set.
	StateApplied
	// StateFailed means the pipeline stopped without touching the live
	// mods directory.
	StateFailed
)

// String returns the state name for reports.
func (s State) String() string {
	switch s {
	case StateStaging:
		return "staging"
	case StateVerified:
		return "verified"
	case StateBackedUp:
		return "backed-up"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Target is one mod the pipeline should bring to the target version.
type Target struct {
	Declaration mods.Declaration
	// InstalledFilename is the currently installed archive name, empty
	// if the mod is not installed yet. The apply step removes it so
	// stale versions never remain alongside the new ones.
	InstalledFilename string
}

// Outcome is the per-mod staging result.
type Outcome struct {
	ProjectID string
	// Filename is the staged artifact name, empty when resolution
	// failed before a file was known.
	Filename string
	// Err is nil when the mod staged and verified successfully.
	Err error
	// FailedByAssociation is true for mods that staged cleanly but were
	// abandoned because a sibling failed and the pipeline aborted.
	FailedByAssociation bool
}

// Result reports one pipeline run.
type Result struct {
	State      State
	Outcomes   []Outcome
	BackupPath string
}

// Failed returns the outcomes that did not end in an applied mod.
func (r *Result) Failed() []Outcome {
	var failed []Outcome

	for _, o := range r.Outcomes {
		if o.Err != nil || o.FailedByAssociation {
			failed = append(failed, o)
		}
	}

	return failed
}

// stagedMod pairs a target with its verified staged file.
type stagedMod struct {
	target   Target
	filename string
	path     string
}

// Pipeline executes one update attempt. Instances are not reused; a new
// attempt needs a new pipeline.
type Pipeline struct {
	provider   modrinth.Provider
	downloader *Downloader

	modsDir     string
	backupsDir  string
	stagingDir  string
	ownsStaging bool
	loader      string
	workers     int

	state         State
	staged        []stagedMod
	applyAttempts int

	// applyMu serializes the backup+apply critical section; the live
	// mods directory is the one shared mutable resource.
	applyMu sync.Mutex
}

// NewPipeline creates a pipeline for one update attempt.
func NewPipeline(provider modrinth.Provider, downloader *Downloader, modsDir, backupsDir, loader string) *Pipeline {
	return &Pipeline{
		provider:   provider,
		downloader: downloader,
		modsDir:    modsDir,
		backupsDir: backupsDir,
		loader:     loader,
		workers:    defaultWorkers,
		state:      StateStaging,
	}
}

// defaultWorkers bounds parallel staging tasks.
const defaultWorkers = 4

// WithWorkers overrides the parallel staging bound.
func (p *Pipeline) WithWorkers(workers int) *Pipeline {
	if workers > 0 {
		p.workers = workers
	}

	return p
}

// WithStagingDir overrides the private staging location. By default a
// temporary directory is created per run and removed afterwards.
func (p *Pipeline) WithStagingDir(dir string) *Pipeline {
	p.stagingDir = dir
	return p
}

// State returns the pipeline's current lifecycle position.
func (p *Pipeline) State() State {
	return p.state
}

// Run stages every target at the given game version, verifies
// integrity, backs up the mods directory and applies the staged set.
// If any mod fails to stage, the live mods directory is left completely
// untouched and every target is reported failed.
func (p *Pipeline) Run(ctx context.Context, targets []Target, target version.Version) (*Result, error) {
	if err := p.ensureStagingDir(); err != nil {
		p.state = StateFailed
		return &Result{State: p.state}, err
	}

	outcomes := p.stageAll(ctx, targets, target)

	failed := 0

	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		// All-or-nothing gate: one failure abandons the whole staged
		// set before anything touches the live directory.
		for i := range outcomes {
			if outcomes[i].Err == nil {
				outcomes[i].FailedByAssociation = true
			}
		}

		p.state = StateFailed
		p.cleanupStaging()

		result := &Result{State: p.state, Outcomes: outcomes}

		return result, errors.Newf("%d of %d mods failed to stage; mods directory left untouched", failed, len(targets))
	}

	p.state = StateVerified

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	backupPath, err := CreateBackup(p.modsDir, p.backupsDir)
	if err != nil {
		p.state = StateFailed
		p.cleanupStaging()

		return &Result{State: p.state, Outcomes: outcomes}, errors.Wrap(err, "backup failed; mods directory left untouched")
	}

	p.state = StateBackedUp

	result := &Result{State: p.state, Outcomes: outcomes, BackupPath: backupPath}

	p.applyAttempts++

	if err := p.apply(); err != nil {
		// Staging is kept so one operator-confirmed retry of the apply
		// step alone remains possible. The backup stays on disk for
		// manual recovery either way.
		return result, errors.Wrapf(err, "apply failed; backup preserved at %s", backupPath)
	}

	p.state = StateApplied
	result.State = p.state
	p.cleanupStaging()

	return result, nil
}

// RetryApply re-runs the apply step alone after a failed apply. It is
// permitted exactly once per pipeline, requires operator confirmation
// by the caller, and never re-downloads or re-verifies.
func (p *Pipeline) RetryApply() error {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if p.state != StateBackedUp {
		return errors.Newf("apply retry not permitted in state %s", p.state)
	}

	if p.applyAttempts != 1 {
		return errors.New("apply retry already used")
	}

	p.applyAttempts++

	if err := p.apply(); err != nil {
		p.state = StateFailed
		p.cleanupStaging()

		return errors.Wrap(err, "apply retry failed; recover manually from the backup")
	}

	p.state = StateApplied
	p.cleanupStaging()

	return nil
}

// stageAll resolves, downloads and verifies every target through a
// bounded worker pool. A failed task marks its own mod failed but does
// not cancel siblings, so the final report is exhaustive.
func (p *Pipeline) stageAll(ctx context.Context, targets []Target, target version.Version) []Outcome {
	outcomes := make([]Outcome, len(targets))
	staged := make([]stagedMod, len(targets))

	var wg sync.WaitGroup

	sem := make(chan struct{}, p.workers)

	for i, t := range targets {
		wg.Add(1)

		go func(i int, t Target) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := Outcome{ProjectID: t.Declaration.ProjectID}

			filename, path, err := p.stageOne(ctx, t, target)
			outcome.Filename = filename
			outcome.Err = err

			if err == nil {
				staged[i] = stagedMod{target: t, filename: filename, path: path}
			}

			outcomes[i] = outcome
		}(i, t)
	}

	wg.Wait()

	p.staged = p.staged[:0]

	for _, s := range staged {
		if s.path != "" {
			p.staged = append(p.staged, s)
		}
	}

	return outcomes
}

// stageOne downloads and verifies a single mod into the staging area.
func (p *Pipeline) stageOne(ctx context.Context, t Target, target version.Version) (string, string, error) {
	artifact, err := p.provider.ResolveArtifact(ctx, t.Declaration.ProjectID, target.String(), p.loader)
	if err != nil {
		if modrinth.IsNotFound(err) {
			return "", "", errors.Wrapf(err, "%s has no artifact for %s", t.Declaration.ProjectID, target)
		}

		return "", "", err
	}

	partPath := filepath.Join(p.stagingDir, artifact.Filename+".part")

	digest, err := p.downloader.Fetch(ctx, artifact.URL, partPath)
	if err != nil {
		return artifact.Filename, "", err
	}

	if !strings.EqualFold(digest, artifact.SHA512) {
		_ = os.Remove(partPath)

		return artifact.Filename, "", errors.Mark(
			errors.Newf("%s: downloaded digest does not match published sha512", artifact.Filename),
			ErrChecksumMismatch)
	}

	stagedPath := filepath.Join(p.stagingDir, artifact.Filename)
	if err := os.Rename(partPath, stagedPath); err != nil {
		_ = os.Remove(partPath)

		return artifact.Filename, "", errors.Wrapf(err, "failed to finalize staged %s", artifact.Filename)
	}

	return artifact.Filename, stagedPath, nil
}

// apply replaces the live files of every staged mod: the old archive is
// removed and the verified staged file copied in. Staged files are
// copied, not moved, so a retry sees the same staged set and the
// operation is idempotent.
func (p *Pipeline) apply() error {
	for _, s := range p.staged {
		if old := s.target.InstalledFilename; old != "" && old != s.filename {
			if err := os.Remove(filepath.Join(p.modsDir, old)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return errors.Wrapf(err, "failed to remove stale %s", old)
			}
		}

		if err := copyFile(s.path, filepath.Join(p.modsDir, s.filename)); err != nil {
			return errors.Wrapf(err, "failed to install %s", s.filename)
		}
	}

	return nil
}

// ensureStagingDir creates the private staging area.
func (p *Pipeline) ensureStagingDir() error {
	if p.stagingDir != "" {
		return nil
	}

	dir, err := os.MkdirTemp("", "mcpm-staging-*")
	if err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}

	p.stagingDir = dir
	p.ownsStaging = true

	return nil
}

// cleanupStaging discards the staged set. A caller-provided staging
// directory itself is left in place; only the files go.
func (p *Pipeline) cleanupStaging() {
	if p.ownsStaging && p.stagingDir != "" {
		_ = os.RemoveAll(p.stagingDir)
		p.stagingDir = ""

		return
	}

	for _, s := range p.staged {
		_ = os.Remove(s.path)
	}
}
