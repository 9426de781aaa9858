package storage

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeDocument FileType = "document"
)

// FileTypes lists the permanent storage folders under a user's root
var FileTypes = []FileType{FileTypeImage, FileTypeVideo, FileTypeAudio, FileTypeDocument}

func ParseFileType(s string) (FileType, bool) {
	for _, t := range FileTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type Dimensions struct {
	Width  int `bson:"width" json:"width"`
	Height int `bson:"height" json:"height"`
}

// FileInfo is the catalog entry of a file that finished the upload protocol
type FileInfo struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Username      string             `bson:"username" json:"username"`
	GroupID       string             `bson:"group_id,omitempty" json:"groupId,omitempty"`
	FileName      string             `bson:"file_name" json:"fileName"`
	StoredName    string             `bson:"stored_name" json:"storedName"`
	Type          FileType           `bson:"type" json:"type"`
	Size          int64              `bson:"size" json:"size"`
	Path          string             `bson:"path" json:"-"`
	Dimensions    *Dimensions        `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	ThumbnailPath string             `bson:"thumbnail_path,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FilePair links a client-side file name to the name it was staged under
type FilePair struct {
	Original string `json:"original"`
	Stored   string `json:"stored"`
	Size     int64  `json:"size"`
}

// Progress is what a tracker reports after each arrival
type Progress struct {
	SessionID string `json:"sessionId"`
	Received  int    `json:"received"`
	Total     int    `json:"total"`
	// Complete is true for exactly one Append per session
	Complete bool `json:"complete"`
	// Closed reports an arrival refused because the session already completed
	Closed bool `json:"closed,omitempty"`
}

type ProgressEvent struct {
	Progress
	Slug        string `json:"slug"`
	AttributeID string `json:"attributeId"`
	FileName    string `json:"fileName,omitempty"`
	Relocated   bool   `json:"relocated"`
	Error       string `json:"error,omitempty"`
}

// RelocatedFile describes one file after it was moved into permanent storage
type RelocatedFile struct {
	FilePair
	Path          string
	Dimensions    *Dimensions
	ThumbnailPath string
}
