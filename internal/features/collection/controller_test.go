package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-cms/internal/config"
	"go-cms/internal/features/endpoint"
	"go-cms/internal/features/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCollectionService records what the handlers hand over and replays canned answers
type stubCollectionService struct {
	patch          *AttributePatch
	uploads        []UploadedFile
	uploadMeta     ParallelMeta
	outcome        *UploadOutcome
	prefixCalls    int
	includeAttribs bool
}

func (s *stubCollectionService) Create(ctx context.Context, username string, form CollectionForm) (*Collection, error) {
	return &Collection{Username: username}, nil
}

func (s *stubCollectionService) FindBySlug(ctx context.Context, slug string) (*Collection, error) {
	return &Collection{Slug: slug}, nil
}

func (s *stubCollectionService) FindByUsername(ctx context.Context, username string) ([]Collection, error) {
	return []Collection{}, nil
}

func (s *stubCollectionService) FindByPrefixAndUsername(ctx context.Context, username, prefix string, visibility endpoint.Visibility, includeAttributes bool) ([]Collection, error) {
	s.prefixCalls++
	s.includeAttribs = includeAttributes
	return []Collection{}, nil
}

func (s *stubCollectionService) FindPublicBySlug(ctx context.Context, slug string) (*Collection, error) {
	return &Collection{Slug: slug}, nil
}

func (s *stubCollectionService) FindPosts(ctx context.Context, slug string) (*PostsCollection, error) {
	return &PostsCollection{}, nil
}

func (s *stubCollectionService) UpdateBySlug(ctx context.Context, username, slug string, form BulkUpdateForm) (*UpdateResult, error) {
	return &UpdateResult{}, nil
}

func (s *stubCollectionService) UpdateAttribute(ctx context.Context, username, slug, attributeID string, patch AttributePatch) (*Collection, error) {
	s.patch = &patch
	return &Collection{Slug: slug}, nil
}

func (s *stubCollectionService) UploadAttributeFile(ctx context.Context, username, slug, attributeID string, meta ParallelMeta, file UploadedFile) (*UploadOutcome, error) {
	s.uploadMeta = meta
	s.uploads = append(s.uploads, file)
	return s.outcome, nil
}

func (s *stubCollectionService) AddAttribute(ctx context.Context, username, slug string, form AttributeForm) (*Collection, error) {
	return &Collection{Slug: slug}, nil
}

func (s *stubCollectionService) DeleteAttribute(ctx context.Context, username, slug, attributeID string) (*Collection, error) {
	return &Collection{Slug: slug}, nil
}

func (s *stubCollectionService) DeleteBySlug(ctx context.Context, username, slug string) error {
	return nil
}

func (s *stubCollectionService) Export(ctx context.Context, username, slug string) ([]byte, string, error) {
	return nil, slug + ".xlsx", nil
}

func newControllerApp(t *testing.T, svc *stubCollectionService) (*fiber.App, string) {
	t.Helper()

	root := t.TempDir()
	relocator, err := storage.NewFilesystemRelocator(&config.Config{StorageRoot: root}, zap.NewNop())
	require.NoError(t, err)

	app := fiber.New()
	ctrl := NewCollectionController(svc, relocator, zap.NewNop())
	NewCollectionApi(ctrl, &config.Config{APIPrefix: "/api/v1", SkipAuth: true}).Setup(app)
	return app, root
}

func multipartFile(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestPublicCollectionsRejectsMalformedAttributesFlag(t *testing.T) {
	svc := &stubCollectionService{}
	app, _ := newControllerApp(t, svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/public/users/alice?attributes=maybe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, svc.prefixCalls)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/public/users/alice?attributes=false", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.prefixCalls)
	assert.False(t, svc.includeAttribs)
}

func TestUpdateAttributeHonoursContentAndSettingFlags(t *testing.T) {
	body := `{"content":{"id":"a1","kind":"plain","value":"hello"},"setting":{"id":"a1","name":"title","type":"text"}}`

	tests := []struct {
		name        string
		query       string
		status      int
		wantContent bool
		wantSetting bool
	}{
		{name: "both by default", query: "", status: fiber.StatusOK, wantContent: true, wantSetting: true},
		{name: "content off", query: "?content=false", status: fiber.StatusOK, wantContent: false, wantSetting: true},
		{name: "setting off", query: "?setting=false", status: fiber.StatusOK, wantContent: true, wantSetting: false},
		{name: "malformed flag", query: "?content=yes", status: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubCollectionService{}
			app, _ := newControllerApp(t, svc)

			req := httptest.NewRequest("PUT", "/api/v1/collections/blog/attributes/a1"+tt.query, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status != fiber.StatusOK {
				assert.Nil(t, svc.patch)
				return
			}
			require.NotNil(t, svc.patch)
			assert.Equal(t, tt.wantContent, svc.patch.Content != nil)
			assert.Equal(t, tt.wantSetting, svc.patch.Setting != nil)
		})
	}
}

func TestUploadAttributeFileRejectsBadRequests(t *testing.T) {
	svc := &stubCollectionService{outcome: &UploadOutcome{Received: 1, Total: 2}}
	app, _ := newControllerApp(t, svc)

	body, contentType := multipartFile(t, "file", "cat.png", []byte("png"))
	req := httptest.NewRequest("PUT", "/api/v1/collections/blog/attributes/a1/files?sessionId=s1&type=image", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "total is required")

	body, contentType = multipartFile(t, "file", "cat.png", []byte("png"))
	req = httptest.NewRequest("PUT", "/api/v1/collections/blog/attributes/a1/files?sessionId=s1&total=2&type=spreadsheet", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "type must be known")

	body, contentType = multipartFile(t, "", "", nil)
	req = httptest.NewRequest("PUT", "/api/v1/collections/blog/attributes/a1/files?sessionId=s1&total=2&type=image", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "file part is required")

	assert.Empty(t, svc.uploads)
}

func TestUploadAttributeFileStagesAndReportsProgress(t *testing.T) {
	svc := &stubCollectionService{}
	app, root := newControllerApp(t, svc)

	send := func(name string) *UploadOutcome {
		body, contentType := multipartFile(t, "file", name, []byte("pixels of "+name))
		req := httptest.NewRequest("PUT", "/api/v1/collections/blog/attributes/a1/files?sessionId=s1&total=2&type=image", body)
		req.Header.Set("Content-Type", contentType)
		resp, err := app.Test(req)
		require.NoError(t, err)

		var got UploadOutcome
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		if got.Complete {
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		} else {
			assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
		}
		return &got
	}

	svc.outcome = &UploadOutcome{Received: 1, Total: 2}
	first := send("cat.png")
	assert.False(t, first.Complete)

	svc.outcome = &UploadOutcome{Received: 2, Total: 2, Complete: true, Collection: &Collection{Slug: "blog"}}
	second := send("dog.png")
	assert.True(t, second.Complete)
	require.NotNil(t, second.Collection)
	assert.Equal(t, "blog", second.Collection.Slug)

	require.Len(t, svc.uploads, 2)
	assert.Equal(t, ParallelMeta{SessionID: "s1", Total: 2, Type: "image"}, svc.uploadMeta)
	for _, f := range svc.uploads {
		assert.Equal(t, ".png", filepath.Ext(f.StoredName))
		assert.NotEqual(t, f.OriginalName, f.StoredName)

		staged, err := os.ReadFile(filepath.Join(root, "temp", "dev", "s1", f.StoredName))
		require.NoError(t, err)
		assert.Equal(t, "pixels of "+f.OriginalName, string(staged))
		assert.Equal(t, int64(len(staged)), f.Size)
	}
}
