package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSandbox(t *testing.T) {
	tmpDir := t.TempDir()
	sandboxDir := filepath.Join(tmpDir, "sandbox")

	sb, err := NewSandbox(sandboxDir)
	require.NoError(t, err)
	require.NotNil(t, sb)

	info, err := os.Stat(sandboxDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.True(t, filepath.IsAbs(sb.BaseDir()))
}

func TestSandbox_ResolvePath(t *testing.T) {
	sb := setupTestSandbox(t)

	tests := []struct {
		name        string
		path        string
		shouldError bool
	}{
		{"simple file", "seg-1.m4s", false},
		{"nested path", "v_0/seg-1.m4s", false},
		{"deep nesting", "a/b/c/seg-1.m4s", false},
		{"current dir", ".", false},
		{"parent escape attempt", "../escape.m4s", true},
		{"nested parent escape", "v_0/../../escape.m4s", true},
		{"absolute path escape", "/etc/passwd", true},
		{"hidden file", ".hidden", false},
		{"dot dot name", "..seg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := sb.ResolvePath(tt.path)
			if tt.shouldError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "escapes sandbox")
			} else {
				assert.NoError(t, err)
				assert.True(t, strings.HasPrefix(resolved, sb.BaseDir()))
			}
		})
	}
}

func TestSandbox_WriteAndReadFile(t *testing.T) {
	sb := setupTestSandbox(t)
	content := []byte("segment bytes")

	err := sb.WriteFile("v_0/seg-1.m4s", content)
	require.NoError(t, err)

	data, err := sb.ReadFile("v_0/seg-1.m4s")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestSandbox_WriteFile_CreatesParentDirs(t *testing.T) {
	sb := setupTestSandbox(t)
	content := []byte("init segment")

	err := sb.WriteFile("v_0/a_0/init.mp4", content)
	require.NoError(t, err)

	exists, err := sb.Exists("v_0/a_0/init.mp4")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSandbox_Exists(t *testing.T) {
	sb := setupTestSandbox(t)

	exists, err := sb.Exists("nonexistent.m4s")
	require.NoError(t, err)
	assert.False(t, exists)

	err = sb.WriteFile("exists.m4s", []byte("test"))
	require.NoError(t, err)

	exists, err = sb.Exists("exists.m4s")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSandbox_Remove(t *testing.T) {
	sb := setupTestSandbox(t)

	err := sb.WriteFile("seg-1.m4s", []byte("test"))
	require.NoError(t, err)

	err = sb.Remove("seg-1.m4s")
	require.NoError(t, err)

	exists, err := sb.Exists("seg-1.m4s")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSandbox_RemoveAll(t *testing.T) {
	sb := setupTestSandbox(t)

	err := sb.WriteFile("v_0/seg-1.m4s", []byte("test"))
	require.NoError(t, err)

	err = sb.RemoveAll("v_0")
	require.NoError(t, err)

	exists, err := sb.Exists("v_0")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSandbox_RemoveAll_CannotRemoveBase(t *testing.T) {
	sb := setupTestSandbox(t)

	err := sb.RemoveAll(".")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove sandbox base directory")
}

func TestSandbox_AtomicWrite(t *testing.T) {
	sb := setupTestSandbox(t)
	content := []byte("atomic segment content")

	err := sb.AtomicWrite("v_0/seg-2.m4s", content)
	require.NoError(t, err)

	data, err := sb.ReadFile("v_0/seg-2.m4s")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestSandbox_PathTraversalAttempts(t *testing.T) {
	sb := setupTestSandbox(t)

	attacks := []string{
		"../../../etc/passwd",
		"v_0/../../../etc/passwd",
		"/absolute/path",
		"v_0/../../..",
		"v_0/./../../etc/passwd",
	}

	for _, attack := range attacks {
		t.Run(attack, func(t *testing.T) {
			_, err := sb.ResolvePath(attack)
			assert.Error(t, err, "path traversal should be blocked: %s", attack)
		})
	}
}

func setupTestSandbox(t *testing.T) *Sandbox {
	t.Helper()

	tmpDir := t.TempDir()
	sb, err := NewSandbox(tmpDir)
	require.NoError(t, err)

	return sb
}
