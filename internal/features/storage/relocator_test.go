package storage

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-cms/internal/config"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRelocator(t *testing.T) (*FilesystemRelocator, string) {
	t.Helper()
	root := t.TempDir()
	r, err := NewFilesystemRelocator(&config.Config{
		StorageRoot:      root,
		ThumbnailWidth:   16,
		ThumbnailHeight:  16,
		ThumbnailQuality: 80,
	}, zap.NewNop())
	require.NoError(t, err)
	return r, r.root
}

func stageFile(t *testing.T, r *FilesystemRelocator, username, session, name string) FilePair {
	t.Helper()
	stored, path, err := r.Stage(username, session, name)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("data-"+name), 0644))
	return FilePair{Original: name, Stored: stored}
}

func TestRelocateMovesFilesAndRemovesTempDir(t *testing.T) {
	r, root := newTestRelocator(t)

	pairs := []FilePair{
		stageFile(t, r, "alice", "s1", "notes.pdf"),
		stageFile(t, r, "alice", "s1", "draft.PDF"),
	}
	assert.Equal(t, ".pdf", filepath.Ext(pairs[1].Stored))

	moved, err := r.Relocate(context.Background(), "alice", "s1", FileTypeDocument, "g1", pairs)
	require.NoError(t, err)
	require.Len(t, moved, 2)

	for _, m := range moved {
		assert.Equal(t, filepath.Join(root, "alice", "document", "g1", m.Stored), m.Path)
		_, err := os.Stat(m.Path)
		assert.NoError(t, err)
	}

	_, err = os.Stat(filepath.Join(root, "temp", "alice", "s1"))
	assert.True(t, os.IsNotExist(err))
}

func TestRelocateWithoutGroupUsesTypeDirectory(t *testing.T) {
	r, root := newTestRelocator(t)
	pair := stageFile(t, r, "alice", "s2", "clip.mp4")

	moved, err := r.Relocate(context.Background(), "alice", "s2", FileTypeVideo, "", []FilePair{pair})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "alice", "video", pair.Stored), moved[0].Path)
}

func TestRelocateMissingSourceFails(t *testing.T) {
	r, _ := newTestRelocator(t)
	_, _, err := r.Stage("alice", "s3", "a.png")
	require.NoError(t, err)

	_, err = r.Relocate(context.Background(), "alice", "s3", FileTypeImage, "", []FilePair{{Original: "a.png", Stored: "missing.png"}})
	assert.Error(t, err)
}

func TestRelocateImageProducesDimensionsAndThumbnail(t *testing.T) {
	r, _ := newTestRelocator(t)

	stored, path, err := r.Stage("alice", "s4", "pic.png")
	require.NoError(t, err)
	img := imaging.New(64, 32, color.NRGBA{R: 255, A: 255})
	require.NoError(t, imaging.Save(img, path))

	moved, err := r.Relocate(context.Background(), "alice", "s4", FileTypeImage, "", []FilePair{{Original: "pic.png", Stored: stored}})
	require.NoError(t, err)
	require.Len(t, moved, 1)
	require.NotNil(t, moved[0].Dimensions)
	assert.Equal(t, 64, moved[0].Dimensions.Width)
	assert.Equal(t, 32, moved[0].Dimensions.Height)

	thumb, err := imaging.Open(moved[0].ThumbnailPath)
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 16)
}

func TestStageRejectsTraversal(t *testing.T) {
	r, _ := newTestRelocator(t)

	_, _, err := r.Stage("alice", "../etc", "x.png")
	assert.Error(t, err)
	_, _, err = r.Stage("..", "s1", "x.png")
	assert.Error(t, err)
}

func TestStageDropsUnsafeExtensionSoDiscardWorks(t *testing.T) {
	r, _ := newTestRelocator(t)

	tests := []struct {
		name string
		ext  string
	}{
		{"holiday photo.JPG", ".jpg"},
		{"holiday photo.jp g", ""},
		{"résumé.dóc", ""},
		{"backup.tar~", ""},
		{"noextension", ""},
		{"trailingdot.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, path, err := r.Stage("alice", "s1", tt.name)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

			assert.Equal(t, tt.ext, filepath.Ext(stored))
			require.NoError(t, r.Discard("alice", "s1", stored))
			_, err = os.Stat(path)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestSweepTempRemovesOnlyStaleSessions(t *testing.T) {
	r, root := newTestRelocator(t)
	stageFile(t, r, "alice", "stale", "a.png")
	stageFile(t, r, "alice", "fresh", "b.png")

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "temp", "alice", "stale"), old, old))

	n, err := r.SweepTemp(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(root, "temp", "alice", "fresh"))
	assert.NoError(t, err)
}

func TestRemoveRefusesPathsOutsideRoot(t *testing.T) {
	r, _ := newTestRelocator(t)
	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	assert.Error(t, r.Remove(outside))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
