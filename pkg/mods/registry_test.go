package mods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jahfer/mcpm/pkg/testutil"
)

func testDeclarations() []Declaration {
	return []Declaration{
		{
			ProjectID:       "fabric-api",
			Name:            "Fabric API",
			Type:            TypeClientAndServer,
			FilenamePattern: `^fabric-api-.*\.jar$`,
			IsPlatform:      true,
		},
		{
			ProjectID:       "lithium",
			Name:            "Lithium",
			Type:            TypeServerOnly,
			FilenamePattern: `^lithium-.*\.jar$`,
			DependsOn:       []string{"fabric-api"},
		},
		{
			ProjectID:       "sodium",
			Name:            "Sodium",
			Type:            TypeClientAndServer,
			FilenamePattern: `^sodium-.*\.jar$`,
			DependsOn:       []string{"fabric-api"},
		},
	}
}

func TestScanDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "fabric-api-0.100.0.jar"), testutil.BuildModJAR("0.100.0", ">=1.21"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "lithium-0.12.0.jar"), testutil.BuildModJAR("0.12.0", "1.21"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "lithium-0.12.1.jar"), testutil.BuildModJAR("0.12.1", "1.21"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "unmanaged.jar"), []byte("something else"), 0o644))

	reg := NewRegistry(testDeclarations())
	require.NoError(t, reg.ScanDir(dir))

	installed := reg.Installed()
	require.Len(t, installed, 1)
	assert.Equal(t, "fabric-api", installed[0].Declaration.ProjectID)
	assert.Equal(t, "0.100.0", installed[0].Version)
	assert.Equal(t, ">=1.21", installed[0].MinecraftVersion)

	missing := reg.Missing()
	require.Len(t, missing, 1)
	assert.Equal(t, "sodium", missing[0].ProjectID)

	ambiguous := reg.Ambiguous()
	require.Len(t, ambiguous, 1)
	assert.Equal(t, "lithium", ambiguous[0].Declaration.ProjectID)
	assert.Equal(t, []string{"lithium-0.12.0.jar", "lithium-0.12.1.jar"}, ambiguous[0].Candidates)
}

func TestScanDirMissingDirectory(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testDeclarations())
	assert.Error(t, reg.ScanDir(filepath.Join(t.TempDir(), "nope")))
}

func TestDependentsOf(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testDeclarations())

	dependents := reg.DependentsOf("fabric-api")
	require.Len(t, dependents, 2)
	assert.Equal(t, "lithium", dependents[0].ProjectID)
	assert.Equal(t, "sodium", dependents[1].ProjectID)

	// Non-platform declarations have no dependents by convention.
	assert.Empty(t, reg.DependentsOf("lithium"))

	// Unknown project IDs have none either.
	assert.Empty(t, reg.DependentsOf("unknown"))
}

func TestDeclarationLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(testDeclarations())

	d, ok := reg.Declaration("lithium")
	require.True(t, ok)
	assert.Equal(t, "Lithium", d.Name)

	_, ok = reg.Declaration("unknown")
	assert.False(t, ok)
}
