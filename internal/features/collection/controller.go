package collection

import (
	"fmt"

	"go-cms/internal/common/api"
	"go-cms/internal/common/apperror"
	"go-cms/internal/features/endpoint"
	"go-cms/internal/features/storage"
	"go-cms/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CollectionController struct {
	Service   CollectionService
	Relocator storage.Relocator
	logger    *zap.Logger
}

func NewCollectionController(service CollectionService, relocator storage.Relocator, logger *zap.Logger) *CollectionController {
	return &CollectionController{
		Service:   service,
		Relocator: relocator,
		logger:    logger,
	}
}

// CreateCollection godoc
// @Summary Create a collection or a post
// @Description With kind "post" the new post is appended to the posts collection named by ref
// @Tags collections
// @Accept json
// @Produce json
// @Param body body CollectionForm true "Collection"
// @Success 201 {object} Collection
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /collections [post]
func (ctrl *CollectionController) CreateCollection(c *fiber.Ctx) error {
	var form CollectionForm
	if err := api.BindAndValidate(c, &form); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	collection, err := ctrl.Service.Create(c.UserContext(), middleware.CurrentUsername(c), form)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// GetCollections godoc
// @Summary List my collections
// @Description Without prefix every collection is returned; with prefix only those registered under it
// @Tags collections
// @Produce json
// @Param prefix query string false "Endpoint prefix"
// @Param visibility query string false "public or private"
// @Param attributes query bool false "Include attributes"
// @Success 200 {array} Collection
// @Router /collections [get]
func (ctrl *CollectionController) GetCollections(c *fiber.Ctx) error {
	username := middleware.CurrentUsername(c)

	if c.Query("prefix") == "" {
		collections, err := ctrl.Service.FindByUsername(c.UserContext(), username)
		if err != nil {
			return api.RespondError(c, ctrl.logger, err)
		}
		return c.JSON(collections)
	}

	includeAttributes, err := api.QueryBool(c, "attributes", true)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	visibility, err := parseVisibility(c.Query("visibility"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	collections, err := ctrl.Service.FindByPrefixAndUsername(c.UserContext(), username, c.Query("prefix"), visibility, includeAttributes)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(collections)
}

func parseVisibility(v string) (endpoint.Visibility, error) {
	switch endpoint.Visibility(v) {
	case "", endpoint.VisibilityPublic:
		return endpoint.VisibilityPublic, nil
	case endpoint.VisibilityPrivate:
		return endpoint.VisibilityPrivate, nil
	default:
		return "", apperror.Validation(fmt.Sprintf("visibility must be '%s' or '%s'", endpoint.VisibilityPublic, endpoint.VisibilityPrivate))
	}
}

func (ctrl *CollectionController) GetCollection(c *fiber.Ctx) error {
	collection, err := ctrl.Service.FindBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(collection)
}

// UpdateCollection godoc
// @Summary Merge attribute contents and settings by id
// @Tags collections
// @Accept json
// @Produce json
// @Param slug path string true "Collection slug"
// @Param body body BulkUpdateForm true "Changes"
// @Success 200 {object} UpdateResult
// @Failure 403 {object} map[string]interface{}
// @Router /collections/{slug} [put]
func (ctrl *CollectionController) UpdateCollection(c *fiber.Ctx) error {
	var form BulkUpdateForm
	if err := api.BindAndValidate(c, &form); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	result, err := ctrl.Service.UpdateBySlug(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"), form)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(result)
}

func (ctrl *CollectionController) DeleteCollection(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteBySlug(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug")); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportCollection godoc
// @Summary Download the attributes of a collection as xlsx
// @Tags collections
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param slug path string true "Collection slug"
// @Success 200 {file} file
// @Router /collections/{slug}/export [get]
func (ctrl *CollectionController) ExportCollection(c *fiber.Ctx) error {
	data, filename, err := ctrl.Service.Export(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

func (ctrl *CollectionController) AddAttribute(c *fiber.Ctx) error {
	var form AttributeForm
	if err := api.BindAndValidate(c, &form); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	collection, err := ctrl.Service.AddAttribute(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"), form)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// UpdateAttribute godoc
// @Summary Replace the content and/or setting of one attribute
// @Tags collections
// @Accept json
// @Produce json
// @Param slug path string true "Collection slug"
// @Param attributeId path string true "Attribute ID"
// @Param content query bool false "Apply body content (default true)"
// @Param setting query bool false "Apply body setting (default true)"
// @Param body body AttributePatch true "Changes"
// @Success 200 {object} Collection
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /collections/{slug}/attributes/{attributeId} [put]
func (ctrl *CollectionController) UpdateAttribute(c *fiber.Ctx) error {
	applyContent, err := api.QueryBool(c, "content", true)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	applySetting, err := api.QueryBool(c, "setting", true)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	var patch AttributePatch
	if err := api.BindAndValidate(c, &patch); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	if !applyContent {
		patch.Content = nil
	}
	if !applySetting {
		patch.Setting = nil
	}

	collection, err := ctrl.Service.UpdateAttribute(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"), c.Params("attributeId"), patch)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(collection)
}

// UploadAttributeFile godoc
// @Summary Upload one file of a parallel upload session
// @Description Each request carries one file. The request that completes the session returns the updated collection.
// @Tags collections
// @Accept multipart/form-data
// @Produce json
// @Param slug path string true "Collection slug"
// @Param attributeId path string true "Attribute ID"
// @Param sessionId query string true "Upload session"
// @Param total query int true "Files in the session"
// @Param groupId query string false "Storage group"
// @Param type query string true "image, video, audio or document"
// @Param file formData file true "File"
// @Success 200 {object} UploadOutcome
// @Success 202 {object} UploadOutcome
// @Failure 400 {object} map[string]interface{}
// @Router /collections/{slug}/attributes/{attributeId}/files [put]
func (ctrl *CollectionController) UploadAttributeFile(c *fiber.Ctx) error {
	var meta ParallelMeta
	if err := c.QueryParser(&meta); err != nil {
		return api.RespondError(c, ctrl.logger, apperror.Validation("Invalid upload query"))
	}
	if err := api.ValidateStruct(&meta); err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return api.RespondError(c, ctrl.logger, apperror.Validation("file is required"))
	}

	username := middleware.CurrentUsername(c)
	stored, path, err := ctrl.Relocator.Stage(username, meta.SessionID, fh.Filename)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	if err := c.SaveFile(fh, path); err != nil {
		return api.RespondError(c, ctrl.logger, apperror.Creation("failed to store uploaded file", err))
	}

	file := UploadedFile{OriginalName: fh.Filename, StoredName: stored, Size: fh.Size}
	outcome, err := ctrl.Service.UploadAttributeFile(c.UserContext(), username, c.Params("slug"), c.Params("attributeId"), meta, file)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	if !outcome.Complete {
		return c.Status(fiber.StatusAccepted).JSON(outcome)
	}
	return c.JSON(outcome)
}

func (ctrl *CollectionController) DeleteAttribute(c *fiber.Ctx) error {
	collection, err := ctrl.Service.DeleteAttribute(c.UserContext(), middleware.CurrentUsername(c), c.Params("slug"), c.Params("attributeId"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(collection)
}

// GetPublicAttributes godoc
// @Summary Read the public attributes of a published collection
// @Tags public
// @Produce json
// @Param slug path string true "Collection slug"
// @Success 200 {array} Attribute
// @Failure 404 {object} map[string]interface{}
// @Router /public/collections/{slug} [get]
func (ctrl *CollectionController) GetPublicAttributes(c *fiber.Ctx) error {
	collection, err := ctrl.Service.FindPublicBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(collection.Attributes)
}

// GetPublicCollections godoc
// @Summary List the public collections a user registered under a prefix
// @Tags public
// @Produce json
// @Param username path string true "Owner"
// @Param prefix query string false "Endpoint prefix (default /)"
// @Param attributes query string false "true or false"
// @Success 200 {array} Collection
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /public/users/{username} [get]
func (ctrl *CollectionController) GetPublicCollections(c *fiber.Ctx) error {
	includeAttributes, err := api.QueryBool(c, "attributes", true)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}

	collections, err := ctrl.Service.FindByPrefixAndUsername(c.UserContext(), c.Params("username"), c.Query("prefix"), endpoint.VisibilityPublic, includeAttributes)
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	for i := range collections {
		collections[i] = collections[i].WithoutPrivate()
	}
	return c.JSON(collections)
}

func (ctrl *CollectionController) GetPublicPosts(c *fiber.Ctx) error {
	posts, err := ctrl.Service.FindPosts(c.UserContext(), c.Params("slug"))
	if err != nil {
		return api.RespondError(c, ctrl.logger, err)
	}
	return c.JSON(posts)
}
