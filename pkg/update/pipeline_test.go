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

package update

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jahfer/mcpm/pkg/modrinth"
	"github.com/jahfer/mcpm/pkg/mods"
	"github.com/jahfer/mcpm/pkg/testutil"
	"github.com/jahfer/mcpm/pkg/version"
)

// fixture wires a mock registry, a mods directory and a pipeline.
type fixture struct {
	mock       *testutil.MockRegistry
	modsDir    string
	backupsDir string
	stagingDir string
	pipeline   *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mock := testutil.NewMockRegistry()
	t.Cleanup(mock.Close)

	root := t.TempDir()
	f := &fixture{
		mock:       mock,
		modsDir:    filepath.Join(root, "mods"),
		backupsDir: filepath.Join(root, "backups"),
		stagingDir: filepath.Join(root, "staging"),
	}

	require.NoError(t, os.MkdirAll(f.modsDir, 0o755))
	require.NoError(t, os.MkdirAll(f.stagingDir, 0o755))

	provider := modrinth.NewClient().WithBaseURL(mock.URL())
	f.pipeline = NewPipeline(provider, NewDownloader(), f.modsDir, f.backupsDir, "fabric").
		WithStagingDir(f.stagingDir)

	return f
}

// addMod registers a project whose 1.21 artifact downloads from the
// mock server. A tampered hash simulates a corrupted download.
func (f *fixture) addMod(t *testing.T, id string, tamperHash bool) ([]byte, Target) {
	t.Helper()

	data := testutil.BuildModJAR("2.0.0", "1.21")
	newName := id + "-2.0.0.jar"
	oldName := id + "-1.0.0.jar"

	hash := testutil.ComputeSHA512(data)
	if tamperHash {
		hash = testutil.ComputeSHA512([]byte("tampered"))
	}

	f.mock.AddFile("/files/"+newName, data)
	f.mock.AddProject(id, []modrinth.VersionRecord{
		{
			VersionNumber: "2.0.0",
			GameVersions:  []string{"1.21"},
			Loaders:       []string{"fabric"},
			Files: []modrinth.VersionFile{
				{
					Filename: newName,
					URL:      f.mock.FileURL("/files/" + newName),
					Primary:  true,
					Hashes:   modrinth.FileHashes{SHA512: hash},
				},
			},
		},
	})

	require.NoError(t, os.WriteFile(
		filepath.Join(f.modsDir, oldName), testutil.BuildModJAR("1.0.0", "1.20"), 0o644))

	target := Target{
		Declaration: mods.Declaration{
			ProjectID:       id,
			Name:            id,
			Type:            mods.TypeServerOnly,
			FilenamePattern: "^" + id + `-.*\.jar$`,
		},
		InstalledFilename: oldName,
	}

	return data, target
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}

	sort.Strings(names)

	return names
}

func TestPipelineRunSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	dataA, targetA := f.addMod(t, "alpha", false)
	_, targetB := f.addMod(t, "beta", false)

	require.NoError(t, os.WriteFile(filepath.Join(f.modsDir, "unmanaged.txt"), []byte("keep"), 0o644))

	result, err := f.pipeline.Run(context.Background(),
		[]Target{targetA, targetB}, version.Parse("1.21"))
	require.NoError(t, err)

	assert.Equal(t, StateApplied, result.State)
	assert.Empty(t, result.Failed())

	// Old archives replaced, unmanaged files untouched.
	assert.Equal(t,
		[]string{"alpha-2.0.0.jar", "beta-2.0.0.jar", "unmanaged.txt"},
		listDir(t, f.modsDir))

	installed, err := os.ReadFile(filepath.Join(f.modsDir, "alpha-2.0.0.jar"))
	require.NoError(t, err)
	assert.Equal(t, dataA, installed)

	// The backup holds the pre-apply contents.
	require.NotEmpty(t, result.BackupPath)
	assert.Equal(t,
		[]string{"alpha-1.0.0.jar", "beta-1.0.0.jar", "unmanaged.txt"},
		listDir(t, result.BackupPath))
}

func TestPipelineChecksumFailureLeavesModsUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, targetA := f.addMod(t, "alpha", false)
	_, targetB := f.addMod(t, "beta", true)
	_, targetC := f.addMod(t, "gamma", false)

	before := listDir(t, f.modsDir)

	result, err := f.pipeline.Run(context.Background(),
		[]Target{targetA, targetB, targetC}, version.Parse("1.21"))
	require.Error(t, err)

	assert.Equal(t, StateFailed, result.State)

	// The live directory is byte-identical to its pre-run state.
	assert.Equal(t, before, listDir(t, f.modsDir))

	// No backup was taken for an aborted run.
	_, statErr := os.Stat(f.backupsDir)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	// The corrupted download never survives, not even in staging.
	assert.Empty(t, listDir(t, f.stagingDir))

	// The failing mod is reported with its own error, the healthy
	// siblings as failed by association.
	failed := result.Failed()
	require.Len(t, failed, 3)

	byID := make(map[string]Outcome)
	for _, o := range failed {
		byID[o.ProjectID] = o
	}

	require.Error(t, byID["beta"].Err)
	assert.True(t, errors.Is(byID["beta"].Err, ErrChecksumMismatch))
	assert.True(t, byID["alpha"].FailedByAssociation)
	assert.True(t, byID["gamma"].FailedByAssociation)
}

func TestPipelineNotFoundFailsThatModOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, targetA := f.addMod(t, "alpha", false)

	ghost := Target{
		Declaration: mods.Declaration{
			ProjectID:       "ghost",
			Name:            "ghost",
			Type:            mods.TypeServerOnly,
			FilenamePattern: `^ghost-.*\.jar$`,
		},
	}

	result, err := f.pipeline.Run(context.Background(),
		[]Target{targetA, ghost}, version.Parse("1.21"))
	require.Error(t, err)

	assert.Equal(t, StateFailed, result.State)

	byID := make(map[string]Outcome)
	for _, o := range result.Outcomes {
		byID[o.ProjectID] = o
	}

	require.Error(t, byID["ghost"].Err)
	assert.True(t, modrinth.IsNotFound(byID["ghost"].Err))
	assert.True(t, byID["alpha"].FailedByAssociation)
}

func TestPipelineDownloadFailureAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, targetA := f.addMod(t, "alpha", false)
	f.mock.SetFailOnPath("/files/alpha-2.0.0.jar", true)

	before := listDir(t, f.modsDir)

	result, err := f.pipeline.Run(context.Background(), []Target{targetA}, version.Parse("1.21"))
	require.Error(t, err)

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, before, listDir(t, f.modsDir))
	assert.Empty(t, listDir(t, f.stagingDir))
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, target := f.addMod(t, "alpha", false)

	staged := filepath.Join(f.stagingDir, "alpha-2.0.0.jar")
	require.NoError(t, os.WriteFile(staged, testutil.BuildModJAR("2.0.0", "1.21"), 0o644))

	f.pipeline.staged = []stagedMod{{target: target, filename: "alpha-2.0.0.jar", path: staged}}

	require.NoError(t, f.pipeline.apply())
	first := listDir(t, f.modsDir)

	require.NoError(t, f.pipeline.apply())
	second := listDir(t, f.modsDir)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"alpha-2.0.0.jar"}, second)
}

func TestRetryApplyGuards(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	// Retry is only reachable after a failed apply.
	err := f.pipeline.RetryApply()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not permitted")

	// And only once.
	f.pipeline.state = StateBackedUp
	f.pipeline.applyAttempts = 2

	err = f.pipeline.RetryApply()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func TestRetryApplyRunsApplyOnceMore(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, target := f.addMod(t, "alpha", false)

	staged := filepath.Join(f.stagingDir, "alpha-2.0.0.jar")
	require.NoError(t, os.WriteFile(staged, testutil.BuildModJAR("2.0.0", "1.21"), 0o644))

	f.pipeline.staged = []stagedMod{{target: target, filename: "alpha-2.0.0.jar", path: staged}}
	f.pipeline.state = StateBackedUp
	f.pipeline.applyAttempts = 1

	require.NoError(t, f.pipeline.RetryApply())
	assert.Equal(t, StateApplied, f.pipeline.State())
	assert.Equal(t, []string{"alpha-2.0.0.jar"}, listDir(t, f.modsDir))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "staging", StateStaging.String())
	assert.Equal(t, "verified", StateVerified.String())
	assert.Equal(t, "backed-up", StateBackedUp.String())
	assert.Equal(t, "applied", StateApplied.String())
	assert.Equal(t, "failed", StateFailed.String())
}
