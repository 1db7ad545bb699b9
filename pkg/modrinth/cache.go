package modrinth

import (
	"context"
	"fmt"
	"sync"

	"github.com/jahfer/mcpm/pkg/version"
)

// CachedProvider wraps a Provider with per-instance memoization. The
// underlying registry data is treated as stable for one process run, so
// entries never expire. Scope a CachedProvider to one run; do not share
// it across runs or test cases.
type CachedProvider struct {
	provider Provider

	mu        sync.RWMutex
	versions  map[string][]version.Version
	artifacts map[string]Artifact
}

// NewCachedProvider creates a memoizing wrapper around a Provider.
func NewCachedProvider(provider Provider) *CachedProvider {
	return &CachedProvider{
		provider:  provider,
		versions:  make(map[string][]version.Version),
		artifacts: make(map[string]Artifact),
	}
}

// SupportedVersions memoizes successful lookups by (projectID, loader).
func (c *CachedProvider) SupportedVersions(ctx context.Context, projectID, loader string) ([]version.Version, error) {
	key := fmt.Sprintf("%s:%s", projectID, loader)

	c.mu.RLock()
	cached, ok := c.versions[key]
	c.mu.RUnlock()

	if ok {
		return cached, nil
	}

	supported, err := c.provider.SupportedVersions(ctx, projectID, loader)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.versions[key] = supported
	c.mu.Unlock()

	return supported, nil
}

// ResolveArtifact memoizes successful lookups by (projectID,
// gameVersion, loader).
func (c *CachedProvider) ResolveArtifact(ctx context.Context, projectID, gameVersion, loader string) (Artifact, error) {
	key := fmt.Sprintf("%s:%s:%s", projectID, gameVersion, loader)

	c.mu.RLock()
	cached, ok := c.artifacts[key]
	c.mu.RUnlock()

	if ok {
		return cached, nil
	}

	artifact, err := c.provider.ResolveArtifact(ctx, projectID, gameVersion, loader)
	if err != nil {
		return Artifact{}, err
	}

	c.mu.Lock()
	c.artifacts[key] = artifact
	c.mu.Unlock()

	return artifact, nil
}
