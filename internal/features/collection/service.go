package collection

import (
	"context"
	"fmt"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/features/endpoint"
	"go-cms/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type CollectionService interface {
	Create(ctx context.Context, username string, form CollectionForm) (*Collection, error)
	FindBySlug(ctx context.Context, slug string) (*Collection, error)
	FindByUsername(ctx context.Context, username string) ([]Collection, error)
	FindByPrefixAndUsername(ctx context.Context, username, prefix string, visibility endpoint.Visibility, includeAttributes bool) ([]Collection, error)
	FindPublicBySlug(ctx context.Context, slug string) (*Collection, error)
	FindPosts(ctx context.Context, slug string) (*PostsCollection, error)
	UpdateBySlug(ctx context.Context, username, slug string, form BulkUpdateForm) (*UpdateResult, error)
	UpdateAttribute(ctx context.Context, username, slug, attributeID string, patch AttributePatch) (*Collection, error)
	UploadAttributeFile(ctx context.Context, username, slug, attributeID string, meta ParallelMeta, file UploadedFile) (*UploadOutcome, error)
	AddAttribute(ctx context.Context, username, slug string, form AttributeForm) (*Collection, error)
	DeleteAttribute(ctx context.Context, username, slug, attributeID string) (*Collection, error)
	DeleteBySlug(ctx context.Context, username, slug string) error
	Export(ctx context.Context, username, slug string) ([]byte, string, error)
}

type CollectionServiceImpl struct {
	Repo            CollectionRepository
	PostsRepo       PostsRepository
	EndpointService endpoint.EndpointService
	Uploads         *UploadReconciler
	logger          *zap.Logger
}

func NewCollectionService(
	repo CollectionRepository,
	postsRepo PostsRepository,
	endpointService endpoint.EndpointService,
	uploads *UploadReconciler,
	logger *zap.Logger,
) CollectionService {
	return &CollectionServiceImpl{
		Repo:            repo,
		PostsRepo:       postsRepo,
		EndpointService: endpointService,
		Uploads:         uploads,
		logger:          logger,
	}
}

// validateAccess loads the collection and checks that username owns it
func (s *CollectionServiceImpl) validateAccess(ctx context.Context, slug, username string) (*Collection, error) {
	c, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.Username != username {
		return nil, apperror.ErrForbidden
	}
	return c, nil
}

func (s *CollectionServiceImpl) Create(ctx context.Context, username string, form CollectionForm) (*Collection, error) {
	switch form.Kind {
	case "", KindCollection:
		return s.createCollection(ctx, username, form)
	case KindPost:
		return s.createPost(ctx, username, form)
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown collection kind %q", form.Kind))
	}
}

func buildAttributes(forms []AttributeForm) ([]Attribute, error) {
	attributes := make([]Attribute, 0, len(forms))
	for _, f := range forms {
		a, err := NewAttribute(f.Setting, f.Content)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, a)
	}
	return attributes, nil
}

func newCollection(username string, kind Kind, info CollectionInfo, attributes []Attribute) (*Collection, error) {
	slug, err := utils.GenerateSlug(info.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	now := time.Now()
	return &Collection{
		Kind:           kind,
		Username:       username,
		CollectionName: info.Name,
		Description:    info.Description,
		Slug:           slug,
		Setting:        info.Setting,
		Attributes:     attributes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// createCollection inserts the collection, registers its endpoint and
// provisions the posts container. A failing step undoes the earlier ones.
func (s *CollectionServiceImpl) createCollection(ctx context.Context, username string, form CollectionForm) (*Collection, error) {
	attributes, err := buildAttributes(form.Attributes)
	if err != nil {
		return nil, err
	}
	c, err := newCollection(username, KindCollection, form.Info, attributes)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}

	prefix := form.Info.Subdirectory
	if len(attributes) > 0 && attributes[0].Setting.Type == TypePosts {
		prefix = endpoint.PostsPrefix
	}
	if _, err := s.EndpointService.CreateEndpoint(ctx, username, prefix, c.Slug); err != nil {
		s.compensate(ctx, c.Slug, username, false)
		return nil, apperror.ErrEndpointCreationFailed.Wrap(err)
	}

	posts := &PostsCollection{
		Username:  username,
		Slug:      c.Slug,
		Posts:     []Collection{},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.CreatedAt,
	}
	if err := s.PostsRepo.Create(ctx, posts); err != nil {
		s.compensate(ctx, c.Slug, username, true)
		return nil, err
	}

	s.logger.Info("Collection created",
		zap.String("username", username),
		zap.String("slug", c.Slug),
		zap.String("prefix", prefix),
	)
	return c, nil
}

func (s *CollectionServiceImpl) compensate(ctx context.Context, slug, username string, endpointCreated bool) {
	if endpointCreated {
		if _, err := s.EndpointService.DeleteEndpointBySlug(ctx, username, slug); err != nil {
			s.logger.Error("Failed to roll back endpoint", zap.String("slug", slug), zap.Error(err))
		}
	}
	if _, err := s.Repo.DeleteBySlug(ctx, slug); err != nil {
		s.logger.Error("Failed to roll back collection", zap.String("slug", slug), zap.Error(err))
	}
}

func postBuiltins(ref, username string) []AttributeForm {
	return []AttributeForm{
		{
			Setting: Setting{Name: "Title", Type: TypeText, Text: &TextOptions{TextType: TextShort}},
			Content: &Content{Value: ""},
		},
		{
			Setting: Setting{Name: "Content", Type: TypeText, Text: &TextOptions{TextType: TextRich}},
			Content: &Content{Value: ""},
		},
		{
			Setting: Setting{Name: "Comment", Type: TypeComment},
			Content: &Content{Comment: &CommentContent{Ref: ref, Username: username}},
		},
		{
			Setting: Setting{Name: "Reaction", Type: TypeReaction},
		},
	}
}

// createPost appends a new post to the posts container named by form.Ref
func (s *CollectionServiceImpl) createPost(ctx context.Context, username string, form CollectionForm) (*Collection, error) {
	if form.Ref == "" {
		return nil, apperror.Validation("ref is required when kind is post")
	}

	container, err := s.PostsRepo.FindBySlug(ctx, form.Ref)
	if err != nil {
		return nil, err
	}
	if container.Username != username {
		return nil, apperror.ErrForbidden
	}

	attributes, err := buildAttributes(append(postBuiltins(form.Ref, username), form.Attributes...))
	if err != nil {
		return nil, err
	}
	post, err := newCollection(username, KindPost, form.Info, attributes)
	if err != nil {
		return nil, err
	}

	if _, err := s.PostsRepo.PushPost(ctx, form.Ref, *post); err != nil {
		return nil, err
	}

	s.logger.Info("Post created",
		zap.String("username", username),
		zap.String("ref", form.Ref),
		zap.String("slug", post.Slug),
	)
	return post, nil
}

func (s *CollectionServiceImpl) FindBySlug(ctx context.Context, slug string) (*Collection, error) {
	return s.Repo.FindBySlug(ctx, slug)
}

func (s *CollectionServiceImpl) FindByUsername(ctx context.Context, username string) ([]Collection, error) {
	return s.Repo.FindByUsername(ctx, username)
}

func (s *CollectionServiceImpl) FindByPrefixAndUsername(ctx context.Context, username, prefix string, visibility endpoint.Visibility, includeAttributes bool) ([]Collection, error) {
	slugs, err := s.EndpointService.FindSlugsByPrefixAndUsername(ctx, username, prefix, visibility)
	if err != nil {
		return nil, err
	}
	if len(slugs) == 0 {
		s.logger.Debug("No slugs registered under prefix",
			zap.String("username", username),
			zap.String("prefix", prefix),
			zap.Bool("prefixExists", slugs != nil),
		)
		return nil, apperror.ErrNoCollectionFound
	}

	return s.Repo.FindBySlugs(ctx, slugs, includeAttributes)
}

// FindPublicBySlug reads a collection through the endpoint gate. Anything
// not publicly resolvable is reported as ResourceNotFound.
func (s *CollectionServiceImpl) FindPublicBySlug(ctx context.Context, slug string) (*Collection, error) {
	if _, err := s.EndpointService.ResolvePublic(ctx, slug); err != nil {
		return nil, err
	}

	c, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, apperror.ErrResourceNotFound
		}
		return nil, err
	}

	public := c.WithoutPrivate()
	return &public, nil
}

func (s *CollectionServiceImpl) FindPosts(ctx context.Context, slug string) (*PostsCollection, error) {
	if _, err := s.EndpointService.ResolvePublic(ctx, slug); err != nil {
		return nil, err
	}

	posts, err := s.PostsRepo.FindBySlug(ctx, slug)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, apperror.ErrResourceNotFound
		}
		return nil, err
	}
	for i := range posts.Posts {
		posts.Posts[i] = posts.Posts[i].WithoutPrivate()
	}
	return posts, nil
}

// UpdateBySlug merges contents and settings into the attributes they match by
// id. Unmatched items are skipped and counted.
func (s *CollectionServiceImpl) UpdateBySlug(ctx context.Context, username, slug string, form BulkUpdateForm) (*UpdateResult, error) {
	c, err := s.validateAccess(ctx, slug, username)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{}
	for i := range form.AttributesSetting {
		setting := form.AttributesSetting[i]
		idx := c.FindAttribute(setting.ID)
		if idx < 0 {
			result.SettingSkipped++
			continue
		}
		if err := c.Attributes[idx].ApplySetting(&setting); err != nil {
			return nil, err
		}
		result.SettingApplied++
	}
	for i := range form.AttributesContent {
		content := form.AttributesContent[i]
		idx := c.FindAttribute(content.ID)
		if idx < 0 {
			result.ContentSkipped++
			continue
		}
		if err := c.Attributes[idx].ApplyContent(&content); err != nil {
			return nil, err
		}
		result.ContentApplied++
	}

	fields := bson.M{}
	if result.SettingApplied > 0 || result.ContentApplied > 0 {
		fields["attributes"] = c.Attributes
	}
	if info := form.CollectionInfo; info != nil {
		if info.Name != nil {
			fields["collectionName"] = *info.Name
		}
		if info.Description != nil {
			fields["description"] = *info.Description
		}
	}

	if len(fields) == 0 {
		result.Collection = c
		return result, nil
	}

	updated, err := s.Repo.Update(ctx, slug, fields)
	if err != nil {
		return nil, err
	}
	result.Collection = updated

	if result.ContentSkipped > 0 || result.SettingSkipped > 0 {
		s.logger.Info("Bulk update skipped unknown attributes",
			zap.String("slug", slug),
			zap.Int("contentSkipped", result.ContentSkipped),
			zap.Int("settingSkipped", result.SettingSkipped),
		)
	}
	return result, nil
}

// UpdateAttribute is the direct path: content and setting are replaced wholesale
func (s *CollectionServiceImpl) UpdateAttribute(ctx context.Context, username, slug, attributeID string, patch AttributePatch) (*Collection, error) {
	c, err := s.validateAccess(ctx, slug, username)
	if err != nil {
		return nil, err
	}

	idx := c.FindAttribute(attributeID)
	if idx < 0 {
		return nil, apperror.ErrAttributeNotFound
	}
	attribute := c.Attributes[idx]

	if err := attribute.ApplySetting(patch.Setting); err != nil {
		return nil, err
	}
	if err := attribute.ApplyContent(patch.Content); err != nil {
		return nil, err
	}

	return s.Repo.UpdateAttributeByID(ctx, slug, attribute)
}

// UploadAttributeFile is the parallel path. The file is already staged; the
// attribute changes only when this arrival completes the session.
func (s *CollectionServiceImpl) UploadAttributeFile(ctx context.Context, username, slug, attributeID string, meta ParallelMeta, file UploadedFile) (*UploadOutcome, error) {
	c, err := s.validateAccess(ctx, slug, username)
	if err != nil {
		s.Uploads.Discard(username, meta.SessionID, file)
		return nil, err
	}
	return s.Uploads.Accept(ctx, c, attributeID, meta, file)
}

func (s *CollectionServiceImpl) AddAttribute(ctx context.Context, username, slug string, form AttributeForm) (*Collection, error) {
	if _, err := s.validateAccess(ctx, slug, username); err != nil {
		return nil, err
	}

	attribute, err := NewAttribute(form.Setting, form.Content)
	if err != nil {
		return nil, err
	}
	return s.Repo.AddAttribute(ctx, slug, attribute)
}

func (s *CollectionServiceImpl) DeleteAttribute(ctx context.Context, username, slug, attributeID string) (*Collection, error) {
	c, err := s.validateAccess(ctx, slug, username)
	if err != nil {
		return nil, err
	}
	if c.FindAttribute(attributeID) < 0 {
		return nil, apperror.ErrAttributeNotFound
	}
	return s.Repo.DeleteAttribute(ctx, slug, attributeID)
}

// DeleteBySlug removes the collection first; endpoint and posts container
// cleanup is best-effort.
func (s *CollectionServiceImpl) DeleteBySlug(ctx context.Context, username, slug string) error {
	if _, err := s.validateAccess(ctx, slug, username); err != nil {
		return err
	}

	deleted, err := s.Repo.DeleteBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrCollectionNotFound
	}

	if _, err := s.EndpointService.DeleteEndpointBySlug(ctx, username, slug); err != nil {
		s.logger.Warn("Failed to delete endpoint of deleted collection", zap.String("slug", slug), zap.Error(err))
	}
	if _, err := s.PostsRepo.DeleteBySlug(ctx, slug); err != nil {
		s.logger.Warn("Failed to delete posts of deleted collection", zap.String("slug", slug), zap.Error(err))
	}
	return nil
}

func (s *CollectionServiceImpl) Export(ctx context.Context, username, slug string) ([]byte, string, error) {
	c, err := s.validateAccess(ctx, slug, username)
	if err != nil {
		return nil, "", err
	}
	return ExportToExcel(c)
}
