package mods

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDecl(pattern string) Declaration {
	return Declaration{
		ProjectID:       "lithium",
		Name:            "Lithium",
		Type:            TypeServerOnly,
		FilenamePattern: pattern,
	}
}

func TestMatchFound(t *testing.T) {
	t.Parallel()

	result := Match(testDecl(`^lithium-.*\.jar$`), []string{
		"/srv/mods/lithium-0.12.1.jar",
		"/srv/mods/sodium-0.5.0.jar",
	})

	require.Equal(t, Found, result.Outcome)
	assert.Equal(t, "lithium-0.12.1.jar", result.Mod.Filename)
	assert.Equal(t, "/srv/mods/lithium-0.12.1.jar", result.Mod.Filepath)
	assert.Equal(t, "lithium", result.Mod.Declaration.ProjectID)
	assert.Equal(t, Unknown, result.Mod.Version)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	result := Match(testDecl(`^lithium-.*\.jar$`), []string{"/srv/mods/Lithium-0.12.1.JAR"})
	assert.Equal(t, Found, result.Outcome)
}

func TestMatchMissing(t *testing.T) {
	t.Parallel()

	result := Match(testDecl(`^lithium-.*\.jar$`), []string{"/srv/mods/sodium-0.5.0.jar"})
	assert.Equal(t, Missing, result.Outcome)

	result = Match(testDecl(`^lithium-.*\.jar$`), nil)
	assert.Equal(t, Missing, result.Outcome)
}

func TestMatchAmbiguous(t *testing.T) {
	t.Parallel()

	result := Match(testDecl(`^lithium-.*\.jar$`), []string{
		"/srv/mods/lithium-0.12.0.jar",
		"/srv/mods/lithium-0.12.1.jar",
	})

	require.Equal(t, Ambiguous, result.Outcome)
	assert.Equal(t, []string{"lithium-0.12.0.jar", "lithium-0.12.1.jar"}, result.Candidates)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "missing", Missing.String())
	assert.Equal(t, "ambiguous", Ambiguous.String())
}
