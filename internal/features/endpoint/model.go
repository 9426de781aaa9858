package endpoint

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// DefaultPrefix is used when a collection is registered without a subdirectory
const DefaultPrefix = "/"

// PostsPrefix holds collections whose first attribute is a posts container
const PostsPrefix = "posts/"

// Endpoint exposes one collection slug over REST
type Endpoint struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Prefix     string             `bson:"prefix" json:"prefix"`
	Slug       string             `bson:"slug" json:"slug"`
	Method     string             `bson:"method" json:"method"`
	Status     Status             `bson:"status" json:"status"`
	Visibility Visibility         `bson:"visibility" json:"visibility"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PubliclyResolvable reports whether anonymous callers may read the slug
func (e *Endpoint) PubliclyResolvable() bool {
	return e.Method == "GET" && e.Status == StatusPublished && e.Visibility == VisibilityPublic
}

// EndpointPatch changes how an existing slug is exposed
type EndpointPatch struct {
	Method     *string     `json:"method,omitempty" validate:"omitempty,oneof=GET POST PUT DELETE PATCH OPTIONS"`
	Status     *Status     `json:"status,omitempty" validate:"omitempty,oneof=published draft"`
	Visibility *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}
