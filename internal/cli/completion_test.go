package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionBash(t *testing.T) {
	out, err := executeCLI(t, "completion", "bash")
	require.NoError(t, err)

	assert.Contains(t, out, "# bash completion")
	assert.Contains(t, out, "__start_homestats")
	assert.Contains(t, out, "__completeNoDesc", "should use dynamic completion")
}

func TestCompletionZsh(t *testing.T) {
	out, err := executeCLI(t, "completion", "zsh")
	require.NoError(t, err)

	assert.Contains(t, out, "#compdef homestats")
	assert.Contains(t, out, "_homestats()")
}

func TestCompletionFish(t *testing.T) {
	out, err := executeCLI(t, "completion", "fish")
	require.NoError(t, err)

	assert.Contains(t, out, "fish completion for homestats")
	assert.Contains(t, out, "complete -c homestats")
}

func TestCompletionPowershell(t *testing.T) {
	out, err := executeCLI(t, "completion", "powershell")
	require.NoError(t, err)

	assert.Contains(t, strings.ToLower(out), "powershell completion")
	assert.Contains(t, out, "Register-ArgumentCompleter")
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	_, err := executeCLI(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}

func TestSnapshotCompletesSourceNames(t *testing.T) {
	assert.Contains(t, snapshotCmd.ValidArgs, "proxmox")
	assert.Contains(t, snapshotCmd.ValidArgs, "media")
}
