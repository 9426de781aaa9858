package collection

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindCollection Kind = "collection"
	KindPost       Kind = "post"
)

// PostSetting toggles the interactive parts of a post
type PostSetting struct {
	EnableComment  bool `bson:"enableComment" json:"enableComment"`
	EnableReaction bool `bson:"enableReaction" json:"enableReaction"`
}

type Collection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind           Kind               `bson:"kind" json:"kind"`
	Username       string             `bson:"username" json:"username"`
	CollectionName string             `bson:"collectionName" json:"collectionName"`
	Description    string             `bson:"description" json:"description"`
	Slug           string             `bson:"slug" json:"slug"`
	Setting        *PostSetting       `bson:"setting,omitempty" json:"setting,omitempty"`
	Attributes     []Attribute        `bson:"attributes,omitempty" json:"attributes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindAttribute returns the index of the attribute with id, or -1
func (c *Collection) FindAttribute(id string) int {
	for i := range c.Attributes {
		if c.Attributes[i].ID == id {
			return i
		}
	}
	return -1
}

// WithoutPrivate returns a copy of c whose private attributes are removed
func (c Collection) WithoutPrivate() Collection {
	public := make([]Attribute, 0, len(c.Attributes))
	for _, a := range c.Attributes {
		if !a.Setting.Private {
			public = append(public, a)
		}
	}
	c.Attributes = public
	return c
}

// PostsCollection is the container of child posts sharing its parent's slug
type PostsCollection struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Slug      string             `bson:"slug" json:"slug"`
	Posts     []Collection       `bson:"posts" json:"posts"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CollectionInfo struct {
	Name         string       `json:"name" validate:"required,max=128"`
	Description  string       `json:"description" validate:"max=1024"`
	Subdirectory string       `json:"subdirectory"`
	Setting      *PostSetting `json:"setting,omitempty"`
}

type AttributeForm struct {
	Setting Setting  `json:"setting" validate:"required"`
	Content *Content `json:"content,omitempty"`
}

// CollectionForm creates either a collection or, with Kind post, a post
// appended to the posts container named by Ref.
type CollectionForm struct {
	Kind       Kind            `json:"kind" validate:"omitempty,oneof=collection post"`
	Ref        string          `json:"ref,omitempty"`
	Info       CollectionInfo  `json:"info" validate:"required"`
	Attributes []AttributeForm `json:"attributes" validate:"dive"`
}

// InfoPatch updates collection metadata. The slug never changes.
type InfoPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// BulkUpdateForm merges contents and settings by id; unknown ids are skipped
type BulkUpdateForm struct {
	AttributesContent []Content  `json:"attributesContent,omitempty"`
	AttributesSetting []Setting  `json:"attributesSetting,omitempty"`
	CollectionInfo    *InfoPatch `json:"collectionInfo,omitempty"`
}

type UpdateResult struct {
	Collection     *Collection `json:"collection"`
	ContentApplied int         `json:"contentApplied"`
	ContentSkipped int         `json:"contentSkipped"`
	SettingApplied int         `json:"settingApplied"`
	SettingSkipped int         `json:"settingSkipped"`
}

// AttributePatch is the direct update body
type AttributePatch struct {
	Content *Content `json:"content,omitempty"`
	Setting *Setting `json:"setting,omitempty"`
}

// ParallelMeta describes one file of a parallel upload session
type ParallelMeta struct {
	SessionID string `query:"sessionId" validate:"required"`
	Total     int    `query:"total" validate:"required,gt=0"`
	GroupID   string `query:"groupId"`
	Type      string `query:"type" validate:"required,oneof=image video audio document"`
}

// UploadedFile is one file already staged by the transport
type UploadedFile struct {
	OriginalName string
	StoredName   string
	Size         int64
}

// UploadOutcome reports the state of the session after one file arrived
type UploadOutcome struct {
	Received   int         `json:"received"`
	Total      int         `json:"total"`
	Complete   bool        `json:"complete"`
	Collection *Collection `json:"collection,omitempty"`
}
