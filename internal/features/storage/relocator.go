package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/config"

	"github.com/disintegration/imaging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const tempDir = "temp"

var (
	pathComponent   = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true,
		".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
	}
)

// Relocator owns the files under the storage root: staging of incoming
// uploads and their move into permanent storage.
type Relocator interface {
	// Stage reserves a temp path for an incoming file and returns its stored name
	Stage(username, sessionID, originalName string) (stored string, path string, err error)
	Relocate(ctx context.Context, username, sessionID string, fileType FileType, groupID string, pairs []FilePair) ([]RelocatedFile, error)
	Discard(username, sessionID, stored string) error
	Remove(path string) error
	SweepTemp(olderThan time.Duration) (int, error)
}

type FilesystemRelocator struct {
	root   string
	thumbW int
	thumbH int
	thumbQ int
	logger *zap.Logger
}

func NewFilesystemRelocator(cfg *config.Config, logger *zap.Logger) (*FilesystemRelocator, error) {
	root, err := filepath.Abs(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, tempDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemRelocator{
		root:   root,
		thumbW: cfg.ThumbnailWidth,
		thumbH: cfg.ThumbnailHeight,
		thumbQ: cfg.ThumbnailQuality,
		logger: logger,
	}, nil
}

func checkComponent(name, value string) error {
	if value == "." || value == ".." || !pathComponent.MatchString(value) {
		return apperror.Validation(fmt.Sprintf("invalid %s", name))
	}
	return nil
}

func (r *FilesystemRelocator) tempSessionDir(username, sessionID string) string {
	return filepath.Join(r.root, tempDir, username, sessionID)
}

func (r *FilesystemRelocator) permanentDir(username string, fileType FileType, groupID string) string {
	return filepath.Join(r.root, username, string(fileType), groupID)
}

func (r *FilesystemRelocator) Stage(username, sessionID, originalName string) (string, string, error) {
	if err := checkComponent("username", username); err != nil {
		return "", "", err
	}
	if err := checkComponent("sessionId", sessionID); err != nil {
		return "", "", err
	}

	dir := r.tempSessionDir(username, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", apperror.Creation("failed to create temp directory", err)
	}

	stored := primitive.NewObjectID().Hex() + storedExtension(originalName)
	return stored, filepath.Join(dir, stored), nil
}

// storedExtension keeps the client's extension only when it is a safe path
// component, so every staged name can later be discarded or relocated.
func storedExtension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) < 2 || !pathComponent.MatchString(ext) {
		return ""
	}
	return ext
}

func (r *FilesystemRelocator) Relocate(ctx context.Context, username, sessionID string, fileType FileType, groupID string, pairs []FilePair) ([]RelocatedFile, error) {
	if err := checkComponent("username", username); err != nil {
		return nil, err
	}
	if err := checkComponent("sessionId", sessionID); err != nil {
		return nil, err
	}
	if groupID != "" {
		if err := checkComponent("groupId", groupID); err != nil {
			return nil, err
		}
	}

	dest := r.permanentDir(username, fileType, groupID)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	source := r.tempSessionDir(username, sessionID)
	moved := make([]RelocatedFile, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return moved, err
		}

		target := filepath.Join(dest, pair.Stored)
		if err := os.Rename(filepath.Join(source, pair.Stored), target); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", pair.Stored, err)
		}

		rf := RelocatedFile{FilePair: pair, Path: target}
		if fileType == FileTypeImage && imageExtensions[filepath.Ext(pair.Stored)] {
			r.describeImage(username, &rf)
		}
		moved = append(moved, rf)
	}

	if err := os.RemoveAll(source); err != nil {
		r.logger.Warn("Failed to remove temp session directory",
			zap.String("path", source), zap.Error(err))
	}

	return moved, nil
}

// describeImage fills dimensions and writes a thumbnail. Failures only cost the extras.
func (r *FilesystemRelocator) describeImage(username string, rf *RelocatedFile) {
	img, err := imaging.Open(rf.Path)
	if err != nil {
		r.logger.Warn("Failed to decode image", zap.String("file", rf.Stored), zap.Error(err))
		return
	}
	bounds := img.Bounds()
	rf.Dimensions = &Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}

	if r.thumbW <= 0 || r.thumbH <= 0 {
		return
	}

	thumbDir := filepath.Join(r.root, username, "thumbnails")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		r.logger.Warn("Failed to create thumbnail directory", zap.Error(err))
		return
	}
	thumbPath := filepath.Join(thumbDir, strings.TrimSuffix(rf.Stored, filepath.Ext(rf.Stored))+".jpg")
	thumb := imaging.Fit(img, r.thumbW, r.thumbH, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(r.thumbQ)); err != nil {
		r.logger.Warn("Failed to write thumbnail", zap.String("file", rf.Stored), zap.Error(err))
		return
	}
	rf.ThumbnailPath = thumbPath
}

func (r *FilesystemRelocator) Discard(username, sessionID, stored string) error {
	if err := checkComponent("stored", stored); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(r.tempSessionDir(username, sessionID), stored))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Remove deletes a file that lives under the storage root
func (r *FilesystemRelocator) Remove(path string) error {
	if path == "" {
		return nil
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to remove %s outside storage root", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SweepTemp removes temp session directories untouched for olderThan
func (r *FilesystemRelocator) SweepTemp(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	base := filepath.Join(r.root, tempDir)

	users, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, u := range users {
		if !u.IsDir() {
			continue
		}
		sessions, err := os.ReadDir(filepath.Join(base, u.Name()))
		if err != nil {
			r.logger.Warn("Failed to read temp user directory", zap.String("user", u.Name()), zap.Error(err))
			continue
		}
		for _, s := range sessions {
			info, err := s.Info()
			if err != nil || !s.IsDir() || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.RemoveAll(filepath.Join(base, u.Name(), s.Name())); err != nil {
				r.logger.Warn("Failed to remove abandoned session", zap.String("session", s.Name()), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}
