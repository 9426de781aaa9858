package collection

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/features/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadReconciler folds the files of a parallel upload session into an
// upload attribute once the session's expected total has arrived.
type UploadReconciler struct {
	Repo      CollectionRepository
	Tracker   storage.SessionTracker
	Relocator storage.Relocator
	Files     storage.FileRepository
	Progress  storage.ProgressPublisher
	logger    *zap.Logger
}

func NewUploadReconciler(
	repo CollectionRepository,
	tracker storage.SessionTracker,
	relocator storage.Relocator,
	files storage.FileRepository,
	progress storage.ProgressPublisher,
	logger *zap.Logger,
) *UploadReconciler {
	return &UploadReconciler{
		Repo:      repo,
		Tracker:   tracker,
		Relocator: relocator,
		Files:     files,
		Progress:  progress,
		logger:    logger,
	}
}

// Discard drops a staged file that will never join its session
func (u *UploadReconciler) Discard(username, sessionID string, file UploadedFile) {
	if err := u.Relocator.Discard(username, sessionID, file.StoredName); err != nil {
		u.logger.Warn("Failed to discard staged file",
			zap.String("username", username),
			zap.String("sessionId", sessionID),
			zap.String("file", file.StoredName),
			zap.Error(err),
		)
	}
}

func checkUpload(s *Setting, meta ParallelMeta, file UploadedFile) error {
	switch s.Type {
	case TypeMedia:
		if s.Media != nil && s.Media.MediaType != meta.Type {
			return apperror.Validation(fmt.Sprintf("attribute %q accepts %s files, got %s", s.Name, s.Media.MediaType, meta.Type))
		}
		if s.Media != nil && !extensionAllowed(s.Media.MediaExtension, file.OriginalName) {
			return apperror.Validation(fmt.Sprintf("attribute %q does not accept %s", s.Name, file.OriginalName))
		}
	case TypeDocument:
		if meta.Type != string(storage.FileTypeDocument) {
			return apperror.Validation(fmt.Sprintf("attribute %q accepts document files, got %s", s.Name, meta.Type))
		}
		if s.Document != nil && !extensionAllowed(s.Document.DocumentExtension, file.OriginalName) {
			return apperror.Validation(fmt.Sprintf("attribute %q does not accept %s", s.Name, file.OriginalName))
		}
	default:
		return apperror.Validation(fmt.Sprintf("attribute %q of type %s does not accept files", s.Name, s.Type))
	}

	if limit := s.MaxUploadSize(); limit > 0 && file.Size > limit {
		return apperror.Validation(fmt.Sprintf("%s exceeds the %d byte limit of attribute %q", file.OriginalName, limit, s.Name))
	}
	return nil
}

// extensionAllowed matches name against a comma separated list such as "jpg,png"
func extensionAllowed(allowed, name string) bool {
	if strings.TrimSpace(allowed) == "" {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, a := range strings.Split(allowed, ",") {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a)), ".") == ext {
			return true
		}
	}
	return false
}

// Accept records one staged file of the session. Only the arrival that
// completes the session relocates the files and mutates the attribute.
func (u *UploadReconciler) Accept(ctx context.Context, c *Collection, attributeID string, meta ParallelMeta, file UploadedFile) (*UploadOutcome, error) {
	idx := c.FindAttribute(attributeID)
	if idx < 0 {
		u.Discard(c.Username, meta.SessionID, file)
		return nil, apperror.ErrAttributeNotFound
	}
	attribute := c.Attributes[idx]

	if err := checkUpload(&attribute.Setting, meta, file); err != nil {
		u.Discard(c.Username, meta.SessionID, file)
		return nil, err
	}

	key := storage.SessionKey(c.Username, meta.SessionID)
	pair := storage.FilePair{Original: file.OriginalName, Stored: file.StoredName, Size: file.Size}
	progress, err := u.Tracker.Append(ctx, key, pair, meta.Total)
	if err != nil {
		u.Discard(c.Username, meta.SessionID, file)
		return nil, apperror.Update("failed to record upload", err)
	}
	if progress.Closed {
		u.Discard(c.Username, meta.SessionID, file)
		return nil, apperror.Validation("upload session already completed")
	}
	progress.SessionID = meta.SessionID
	storage.UploadedFilesTotal.WithLabelValues(meta.Type).Inc()

	ev := storage.ProgressEvent{
		Progress:    progress,
		Slug:        c.Slug,
		AttributeID: attributeID,
		FileName:    file.OriginalName,
	}
	outcome := &UploadOutcome{Received: progress.Received, Total: progress.Total}

	if !progress.Complete {
		u.Progress.Publish(c.Username, ev)
		return outcome, nil
	}

	storage.CompletedSessionsTotal.Inc()
	updated, err := u.complete(ctx, c, attribute, meta, key)
	if err != nil {
		ev.Error = err.Error()
		u.Progress.Publish(c.Username, ev)
		return nil, err
	}

	ev.Relocated = true
	u.Progress.Publish(c.Username, ev)

	outcome.Complete = true
	outcome.Collection = updated
	return outcome, nil
}

func (u *UploadReconciler) complete(ctx context.Context, c *Collection, attribute Attribute, meta ParallelMeta, key string) (*Collection, error) {
	defer func() {
		if err := u.Tracker.Remove(ctx, key); err != nil {
			u.logger.Warn("Failed to remove upload session", zap.String("session", key), zap.Error(err))
		}
	}()

	pairs, err := u.Tracker.Snapshot(ctx, key)
	if err != nil {
		return nil, apperror.Read("failed to read upload session", err)
	}

	fileType := storage.FileType(meta.Type)
	moved, err := u.Relocator.Relocate(ctx, c.Username, meta.SessionID, fileType, meta.GroupID, pairs)
	if err != nil {
		storage.RelocationFailuresTotal.Inc()
		u.logger.Error("Failed to relocate uploaded files",
			zap.String("username", c.Username),
			zap.String("sessionId", meta.SessionID),
			zap.Int("moved", len(moved)),
			zap.Int("expected", len(pairs)),
			zap.Error(err),
		)
		return nil, apperror.Update("failed to move uploaded files", err)
	}

	upload := UploadContent{SessionID: meta.SessionID, Total: meta.Total, GroupID: meta.GroupID}
	if current := attribute.Content.Upload; current != nil {
		if current.SessionID != "" {
			upload = *current
		}
		upload.Files = append([]MediaContent{}, current.Files...)
	}
	if upload.Files == nil {
		upload.Files = []MediaContent{}
	}

	now := time.Now()
	infos := make([]storage.FileInfo, 0, len(moved))
	for _, m := range moved {
		base := strings.TrimSuffix(m.Stored, filepath.Ext(m.Stored))
		id, err := primitive.ObjectIDFromHex(base)
		if err != nil {
			id = primitive.NewObjectID()
		}

		media := MediaContent{
			URL:        fmt.Sprintf("storage/%s/%s", c.Username, id.Hex()),
			FileName:   m.Original,
			FileID:     id.Hex(),
			Size:       m.Size,
			Dimensions: m.Dimensions,
		}
		if m.ThumbnailPath != "" {
			media.ThumbnailURL = media.URL + "?thumbnail=true"
		}
		upload.Files = append(upload.Files, media)

		infos = append(infos, storage.FileInfo{
			ID:            id,
			Username:      c.Username,
			GroupID:       meta.GroupID,
			FileName:      m.Original,
			StoredName:    m.Stored,
			Type:          fileType,
			Size:          m.Size,
			Path:          m.Path,
			Dimensions:    m.Dimensions,
			ThumbnailPath: m.ThumbnailPath,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := u.Files.CreateMany(ctx, infos); err != nil {
		return nil, err
	}

	attribute.Content.Upload = &upload
	updated, err := u.Repo.UpdateAttributeByID(ctx, c.Slug, attribute)
	if err != nil {
		return nil, err
	}

	u.logger.Info("Upload session completed",
		zap.String("username", c.Username),
		zap.String("slug", c.Slug),
		zap.String("attributeId", attribute.ID),
		zap.String("sessionId", meta.SessionID),
		zap.Int("files", len(moved)),
	)
	return updated, nil
}
