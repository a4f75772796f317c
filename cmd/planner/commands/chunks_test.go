// ABOUTME: Tests for the chunks preview command
// ABOUTME: Checks table and JSON output without any model configuration

package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksCmd_Table(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": strings.Repeat("a", 60),
		"b.txt": strings.Repeat("b", 60),
		"c.txt": strings.Repeat("c", 30),
	})

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{"chunks", dir, "--budget", "100"})

	require.NoError(t, cmd.Execute())

	out := output.String()
	assert.Contains(t, out, "CHUNK")
	assert.Contains(t, out, "b.txt, c.txt")
	assert.Contains(t, out, "3 files in 2 chunks")
}

func TestChunksCmd_JSONMarksTruncation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"big.txt":   strings.Repeat("x", 250),
		"small.txt": "tiny",
	})

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{"chunks", dir, "--budget", "100", "--format", "json"})

	require.NoError(t, cmd.Execute())

	var chunks []struct {
		Chunk     int      `json:"chunk"`
		Files     []string `json:"files"`
		Truncated bool     `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal(output.Bytes(), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"big.txt"}, chunks[0].Files)
	assert.True(t, chunks[0].Truncated)
	assert.Equal(t, []string{"small.txt"}, chunks[1].Files)
	assert.False(t, chunks[1].Truncated)
}

func TestChunksCmd_RejectsBadBudget(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"chunks", t.TempDir(), "--budget", "0"})
	assert.ErrorContains(t, cmd.Execute(), "budget must be positive")
}

func TestChunksCmd_DefaultsFollowEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GROUP_BUDGET_CHARS", "100")

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": strings.Repeat("a", 60),
		"b.txt": strings.Repeat("b", 60),
	})

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{"chunks", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, output.String(), "2 files in 2 chunks")
}

func TestChunksCmd_FlagOverridesEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUP_BUDGET_CHARS", "100")

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": strings.Repeat("a", 60),
		"b.txt": strings.Repeat("b", 60),
	})

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{"chunks", dir, "--budget", "500"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, output.String(), "2 files in 1 chunks")
}

func TestChunksCmd_RejectsMalformedEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROUP_BUDGET_CHARS", "40k")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"chunks", t.TempDir()})
	assert.ErrorContains(t, cmd.Execute(), "GROUP_BUDGET_CHARS")
}
