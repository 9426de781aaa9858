package endpoint

import (
	"context"
	"time"

	"go-cms/internal/common/apperror"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type EndpointService interface {
	CreateEndpoint(ctx context.Context, username, prefix, slug string) (*Endpoint, error)
	FindEndpointBySlug(ctx context.Context, slug string) (*Endpoint, error)
	FindEndpointsByUsername(ctx context.Context, username string) ([]Endpoint, error)
	FindSlugsByPrefixAndUsername(ctx context.Context, username, prefix string, visibility Visibility) ([]string, error)
	UpdateEndpoint(ctx context.Context, username, slug string, patch EndpointPatch) (*Endpoint, error)
	DeleteEndpointBySlug(ctx context.Context, username, slug string) (bool, error)
	ResolvePublic(ctx context.Context, slug string) (*Endpoint, error)
}

type EndpointServiceImpl struct {
	Repo   EndpointRepository
	Cache  *GateCache
	logger *zap.Logger
}

func NewEndpointService(repo EndpointRepository, cache *GateCache, logger *zap.Logger) EndpointService {
	return &EndpointServiceImpl{
		Repo:   repo,
		Cache:  cache,
		logger: logger,
	}
}

// CreateEndpoint registers slug as a published, public GET endpoint
func (s *EndpointServiceImpl) CreateEndpoint(ctx context.Context, username, prefix, slug string) (*Endpoint, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	now := time.Now()
	e := &Endpoint{
		Username:   username,
		Prefix:     prefix,
		Slug:       slug,
		Method:     "GET",
		Status:     StatusPublished,
		Visibility: VisibilityPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EndpointServiceImpl) FindEndpointBySlug(ctx context.Context, slug string) (*Endpoint, error) {
	e, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.ErrEndpointNotFound
	}
	return e, nil
}

func (s *EndpointServiceImpl) FindEndpointsByUsername(ctx context.Context, username string) ([]Endpoint, error) {
	return s.Repo.FindByUsername(ctx, username)
}

// FindSlugsByPrefixAndUsername returns nil when nothing is registered under
// the prefix, and an empty slice when the prefix exists but no endpoint has
// the requested visibility.
func (s *EndpointServiceImpl) FindSlugsByPrefixAndUsername(ctx context.Context, username, prefix string, visibility Visibility) ([]string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if visibility == "" {
		visibility = VisibilityPublic
	}

	endpoints, err := s.Repo.FindByPrefixAndUsername(ctx, username, prefix)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, nil
	}

	slugs := []string{}
	for _, e := range endpoints {
		if e.Visibility == visibility {
			slugs = append(slugs, e.Slug)
		}
	}
	return slugs, nil
}

func (s *EndpointServiceImpl) UpdateEndpoint(ctx context.Context, username, slug string, patch EndpointPatch) (*Endpoint, error) {
	existing, err := s.FindEndpointBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing.Username != username {
		return nil, apperror.ErrForbidden
	}

	fields := bson.M{}
	if patch.Method != nil {
		fields["method"] = *patch.Method
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Visibility != nil {
		fields["visibility"] = *patch.Visibility
	}
	if len(fields) == 0 {
		return existing, nil
	}

	e, err := s.Repo.Update(ctx, username, slug, fields)
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(slug)

	s.logger.Info("Endpoint updated",
		zap.String("username", username),
		zap.String("slug", slug),
		zap.String("status", string(e.Status)),
		zap.String("visibility", string(e.Visibility)),
	)
	return e, nil
}

func (s *EndpointServiceImpl) DeleteEndpointBySlug(ctx context.Context, username, slug string) (bool, error) {
	deleted, err := s.Repo.DeleteBySlug(ctx, username, slug)
	s.Cache.Invalidate(slug)
	return deleted, err
}

// ResolvePublic returns the endpoint only when anonymous reads are allowed.
// Every other case, including a missing slug, is ErrResourceNotFound.
func (s *EndpointServiceImpl) ResolvePublic(ctx context.Context, slug string) (*Endpoint, error) {
	e, ok := s.Cache.Get(slug)
	if !ok {
		found, err := s.Repo.FindBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperror.ErrResourceNotFound
		}
		s.Cache.Set(*found)
		e = *found
	}

	if !e.PubliclyResolvable() {
		return nil, apperror.ErrResourceNotFound
	}
	return &e, nil
}
