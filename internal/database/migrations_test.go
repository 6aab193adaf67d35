package database

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"002_index.sql":        {Data: []byte("SELECT 1")},
		"001_audio_notes.sql":  {Data: []byte("SELECT 1")},
		"README.md":            {Data: []byte("ignored")},
		"010_later_change.sql": {Data: []byte("SELECT 1")},
	}

	files, err := pendingFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_audio_notes.sql", "002_index.sql", "010_later_change.sql"}, files)
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	files, err := pendingFiles(os.DirFS("../../migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	sql, err := os.ReadFile("../../migrations/" + files[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "audio_notes")
	assert.Contains(t, string(sql), "created_at")
}
