package storage

import (
	"context"

	"go-cms/internal/common/apperror"

	"go.uber.org/zap"
)

// SessionKey scopes a client-chosen session id to its owner
func SessionKey(username, sessionID string) string {
	return username + ":" + sessionID
}

type StorageService interface {
	GetFilePath(ctx context.Context, username, fileID string, thumbnail bool) (string, error)
	ListFiles(ctx context.Context, username, groupID string) ([]FileInfo, error)
	DeleteFile(ctx context.Context, username, fileID string) error
	DeleteGroup(ctx context.Context, username, groupID string) (int, error)
	SessionProgress(ctx context.Context, username, sessionID string) ([]FilePair, error)
}

type StorageServiceImpl struct {
	FileRepo  FileRepository
	Relocator Relocator
	Tracker   SessionTracker
	logger    *zap.Logger
}

func NewStorageService(fileRepo FileRepository, relocator Relocator, tracker SessionTracker, logger *zap.Logger) StorageService {
	return &StorageServiceImpl{
		FileRepo:  fileRepo,
		Relocator: relocator,
		Tracker:   tracker,
		logger:    logger,
	}
}

// GetFilePath resolves a catalog id to its path on disk, or to its thumbnail
// when one was generated.
func (s *StorageServiceImpl) GetFilePath(ctx context.Context, username, fileID string, thumbnail bool) (string, error) {
	file, err := s.FileRepo.Find(ctx, username, fileID)
	if err != nil {
		return "", err
	}
	if thumbnail {
		if file.ThumbnailPath == "" {
			return "", apperror.ErrFileNotFound
		}
		return file.ThumbnailPath, nil
	}
	return file.Path, nil
}

func (s *StorageServiceImpl) ListFiles(ctx context.Context, username, groupID string) ([]FileInfo, error) {
	return s.FileRepo.List(ctx, username, groupID)
}

func (s *StorageServiceImpl) DeleteFile(ctx context.Context, username, fileID string) error {
	file, err := s.FileRepo.Find(ctx, username, fileID)
	if err != nil {
		return err
	}

	if err := s.FileRepo.Delete(ctx, username, fileID); err != nil {
		return err
	}
	s.removeFromDisk(*file)
	return nil
}

func (s *StorageServiceImpl) DeleteGroup(ctx context.Context, username, groupID string) (int, error) {
	if groupID == "" {
		return 0, apperror.Validation("groupId is required")
	}

	files, err := s.FileRepo.DeleteGroup(ctx, username, groupID)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		s.removeFromDisk(f)
	}
	return len(files), nil
}

// Catalog entries are authoritative; leftovers on disk are only logged
func (s *StorageServiceImpl) removeFromDisk(f FileInfo) {
	for _, p := range []string{f.Path, f.ThumbnailPath} {
		if err := s.Relocator.Remove(p); err != nil {
			s.logger.Warn("Failed to remove file from disk",
				zap.String("username", f.Username), zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *StorageServiceImpl) SessionProgress(ctx context.Context, username, sessionID string) ([]FilePair, error) {
	pairs, err := s.Tracker.Snapshot(ctx, SessionKey(username, sessionID))
	if err != nil {
		return nil, apperror.Read("failed to read upload session", err)
	}
	if len(pairs) == 0 {
		return nil, apperror.ErrSessionNotFound
	}
	return pairs, nil
}
