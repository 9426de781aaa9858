package endpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-cms/internal/common/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type fakeEndpointRepo struct {
	bySlug    map[string]Endpoint
	findCalls int
}

func newFakeEndpointRepo(endpoints ...Endpoint) *fakeEndpointRepo {
	r := &fakeEndpointRepo{bySlug: map[string]Endpoint{}}
	for _, e := range endpoints {
		r.bySlug[e.Slug] = e
	}
	return r
}

func (r *fakeEndpointRepo) Create(ctx context.Context, e *Endpoint) error {
	if _, ok := r.bySlug[e.Slug]; ok {
		return apperror.ErrDuplicateSlug
	}
	r.bySlug[e.Slug] = *e
	return nil
}

func (r *fakeEndpointRepo) FindBySlug(ctx context.Context, slug string) (*Endpoint, error) {
	r.findCalls++
	e, ok := r.bySlug[slug]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeEndpointRepo) FindByUsername(ctx context.Context, username string) ([]Endpoint, error) {
	out := []Endpoint{}
	for _, e := range r.bySlug {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEndpointRepo) FindByPrefixAndUsername(ctx context.Context, username, prefix string) ([]Endpoint, error) {
	out := []Endpoint{}
	for _, e := range r.bySlug {
		if e.Username == username && e.Prefix == prefix {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEndpointRepo) Update(ctx context.Context, username, slug string, fields bson.M) (*Endpoint, error) {
	e, ok := r.bySlug[slug]
	if !ok || e.Username != username {
		return nil, apperror.ErrEndpointNotFound
	}
	if v, ok := fields["status"]; ok {
		e.Status = v.(Status)
	}
	if v, ok := fields["visibility"]; ok {
		e.Visibility = v.(Visibility)
	}
	if v, ok := fields["method"]; ok {
		e.Method = v.(string)
	}
	r.bySlug[slug] = e
	return &e, nil
}

func (r *fakeEndpointRepo) DeleteBySlug(ctx context.Context, username, slug string) (bool, error) {
	e, ok := r.bySlug[slug]
	if !ok || e.Username != username {
		return false, nil
	}
	delete(r.bySlug, slug)
	return true, nil
}

func newTestService(repo EndpointRepository) EndpointService {
	return NewEndpointService(repo, NewGateCache(16, time.Minute), zap.NewNop())
}

func TestCreateEndpointDefaults(t *testing.T) {
	svc := newTestService(newFakeEndpointRepo())

	e, err := svc.CreateEndpoint(context.Background(), "alice", "", "blog_abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, e.Prefix)
	assert.Equal(t, "GET", e.Method)
	assert.Equal(t, StatusPublished, e.Status)
	assert.Equal(t, VisibilityPublic, e.Visibility)

	_, err = svc.CreateEndpoint(context.Background(), "alice", "", "blog_abcdefgh")
	assert.True(t, errors.Is(err, apperror.ErrDuplicateSlug))
}

func TestResolvePublicGate(t *testing.T) {
	base := Endpoint{Username: "alice", Prefix: "/", Method: "GET", Status: StatusPublished, Visibility: VisibilityPublic}

	draft := base
	draft.Slug, draft.Status = "draft", StatusDraft
	private := base
	private.Slug, private.Visibility = "private", VisibilityPrivate
	post := base
	post.Slug, post.Method = "post", "POST"
	open := base
	open.Slug = "open"

	svc := newTestService(newFakeEndpointRepo(draft, private, post, open))
	ctx := context.Background()

	for _, slug := range []string{"draft", "private", "post", "missing"} {
		t.Run(slug, func(t *testing.T) {
			_, err := svc.ResolvePublic(ctx, slug)
			assert.True(t, errors.Is(err, apperror.ErrResourceNotFound))
			assert.Equal(t, 404, apperror.HTTPStatus(err))
		})
	}

	e, err := svc.ResolvePublic(ctx, "open")
	require.NoError(t, err)
	assert.Equal(t, "open", e.Slug)
}

func TestResolvePublicUsesCacheAndUpdateInvalidates(t *testing.T) {
	repo := newFakeEndpointRepo(Endpoint{Username: "alice", Slug: "s", Prefix: "/", Method: "GET", Status: StatusPublished, Visibility: VisibilityPublic})
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ResolvePublic(ctx, "s")
	require.NoError(t, err)
	_, err = svc.ResolvePublic(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.findCalls)

	draft := StatusDraft
	_, err = svc.UpdateEndpoint(ctx, "alice", "s", EndpointPatch{Status: &draft})
	require.NoError(t, err)

	_, err = svc.ResolvePublic(ctx, "s")
	assert.True(t, errors.Is(err, apperror.ErrResourceNotFound))
}

func TestUpdateEndpointRequiresOwner(t *testing.T) {
	repo := newFakeEndpointRepo(Endpoint{Username: "alice", Slug: "s", Method: "GET", Status: StatusPublished, Visibility: VisibilityPublic})
	svc := newTestService(repo)

	private := VisibilityPrivate
	_, err := svc.UpdateEndpoint(context.Background(), "bob", "s", EndpointPatch{Visibility: &private})
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
	assert.Equal(t, VisibilityPublic, repo.bySlug["s"].Visibility)
}

func TestFindSlugsByPrefixDistinguishesAbsentFromEmpty(t *testing.T) {
	repo := newFakeEndpointRepo(
		Endpoint{Username: "alice", Slug: "a", Prefix: "blog", Visibility: VisibilityPrivate},
		Endpoint{Username: "alice", Slug: "b", Prefix: "docs", Visibility: VisibilityPublic},
	)
	svc := newTestService(repo)
	ctx := context.Background()

	slugs, err := svc.FindSlugsByPrefixAndUsername(ctx, "alice", "nothing", VisibilityPublic)
	require.NoError(t, err)
	assert.Nil(t, slugs)

	slugs, err = svc.FindSlugsByPrefixAndUsername(ctx, "alice", "blog", VisibilityPublic)
	require.NoError(t, err)
	assert.NotNil(t, slugs)
	assert.Empty(t, slugs)

	slugs, err = svc.FindSlugsByPrefixAndUsername(ctx, "alice", "docs", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, slugs)
}
