package modrinth

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jahfer/mcpm/pkg/version"
)

// countingProvider records how often each lookup reaches the backend.
type countingProvider struct {
	versionCalls  atomic.Int64
	artifactCalls atomic.Int64
	fail          bool
}

func (p *countingProvider) SupportedVersions(_ context.Context, projectID, _ string) ([]version.Version, error) {
	p.versionCalls.Add(1)

	if p.fail {
		return nil, errors.Newf("backend failure for %s", projectID)
	}

	return []version.Version{version.Parse("1.21")}, nil
}

func (p *countingProvider) ResolveArtifact(_ context.Context, projectID, gameVersion, _ string) (Artifact, error) {
	p.artifactCalls.Add(1)

	if p.fail {
		return Artifact{}, errors.Newf("backend failure for %s", projectID)
	}

	return Artifact{Filename: projectID + ".jar", GameVersion: gameVersion}, nil
}

func TestCachedProviderMemoizesVersions(t *testing.T) {
	t.Parallel()

	backend := &countingProvider{}
	cached := NewCachedProvider(backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		supported, err := cached.SupportedVersions(ctx, "lithium", "fabric")
		require.NoError(t, err)
		require.Len(t, supported, 1)
	}

	assert.Equal(t, int64(1), backend.versionCalls.Load())

	// A different key reaches the backend again.
	_, err := cached.SupportedVersions(ctx, "sodium", "fabric")
	require.NoError(t, err)
	assert.Equal(t, int64(2), backend.versionCalls.Load())
}

func TestCachedProviderMemoizesArtifacts(t *testing.T) {
	t.Parallel()

	backend := &countingProvider{}
	cached := NewCachedProvider(backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		artifact, err := cached.ResolveArtifact(ctx, "lithium", "1.21", "fabric")
		require.NoError(t, err)
		assert.Equal(t, "lithium.jar", artifact.Filename)
	}

	assert.Equal(t, int64(1), backend.artifactCalls.Load())

	_, err := cached.ResolveArtifact(ctx, "lithium", "1.21.1", "fabric")
	require.NoError(t, err)
	assert.Equal(t, int64(2), backend.artifactCalls.Load())
}

func TestCachedProviderDoesNotMemoizeFailures(t *testing.T) {
	t.Parallel()

	backend := &countingProvider{fail: true}
	cached := NewCachedProvider(backend)
	ctx := context.Background()

	_, err := cached.SupportedVersions(ctx, "lithium", "fabric")
	require.Error(t, err)

	_, err = cached.SupportedVersions(ctx, "lithium", "fabric")
	require.Error(t, err)

	assert.Equal(t, int64(2), backend.versionCalls.Load())
}
