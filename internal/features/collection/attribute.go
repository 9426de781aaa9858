package collection

import (
	"fmt"
	"math"
	"time"

	"go-cms/internal/common/apperror"
	"go-cms/internal/features/storage"

	"github.com/google/uuid"
)

type AttributeType string

const (
	TypeText     AttributeType = "text"
	TypeCode     AttributeType = "code"
	TypeMedia    AttributeType = "media"
	TypeDocument AttributeType = "document"
	TypeDate     AttributeType = "date"
	TypeNumber   AttributeType = "number"
	TypeDecimal  AttributeType = "decimal"
	TypeBoolean  AttributeType = "boolean"
	TypeComment  AttributeType = "comment"
	TypeReaction AttributeType = "reaction"
	TypeDynamic  AttributeType = "dynamic"
	TypePost     AttributeType = "post"
	TypePosts    AttributeType = "posts"
)

func (t AttributeType) Valid() bool {
	switch t {
	case TypeText, TypeCode, TypeMedia, TypeDocument, TypeDate, TypeNumber, TypeDecimal,
		TypeBoolean, TypeComment, TypeReaction, TypeDynamic, TypePost, TypePosts:
		return true
	}
	return false
}

const (
	TextShort = "short_text"
	TextLong  = "long_text"
	TextRich  = "rich_text"
)

const (
	defaultMaxLength  = 255
	defaultLongLength = 65535
	defaultMaxSize    = 10 << 20
	defaultDate       = "YYYY-MM-DD"
)

type TextOptions struct {
	MaxLength int    `bson:"maxLength" json:"maxLength"`
	MinLength int    `bson:"minLength" json:"minLength"`
	TextType  string `bson:"textType" json:"textType"` // short_text, long_text, rich_text
}

type CodeOptions struct {
	MaxLength int    `bson:"maxLength" json:"maxLength"`
	MinLength int    `bson:"minLength" json:"minLength"`
	Language  string `bson:"language" json:"language"`
}

type ImageMetadata struct {
	ID          string              `bson:"id" json:"id"`
	AltText     string              `bson:"altText" json:"altText"`
	Title       string              `bson:"title,omitempty" json:"title,omitempty"`
	Caption     string              `bson:"caption,omitempty" json:"caption,omitempty"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	FileName    string              `bson:"fileName" json:"fileName"`
	FileSize    int64               `bson:"fileSize" json:"fileSize"`
	Dimensions  *storage.Dimensions `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	UsageRights string              `bson:"usageRights,omitempty" json:"usageRights,omitempty"`
	Creator     string              `bson:"creator" json:"creator"`
}

type MediaOptions struct {
	MediaType      string          `bson:"mediaType" json:"mediaType"` // image, video, audio
	MediaExtension string          `bson:"mediaExtension,omitempty" json:"mediaExtension,omitempty"`
	MaxSize        int64           `bson:"maxSize" json:"maxSize"`
	Metadata       []ImageMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type DocumentOptions struct {
	DocumentExtension string `bson:"documentExtension,omitempty" json:"documentExtension,omitempty"`
	MaxSize           int64  `bson:"maxSize" json:"maxSize"`
}

type DateOptions struct {
	Format string `bson:"format" json:"format"`
}

// A nil bound takes the type's default; zero is a real bound.
type NumberOptions struct {
	Min *float64 `bson:"min" json:"min"`
	Max *float64 `bson:"max" json:"max"`
}

type DecimalOptions struct {
	Min       *float64 `bson:"min" json:"min"`
	Max       *float64 `bson:"max" json:"max"`
	Precision [2]int   `bson:"precision" json:"precision"`
}

func bound(v float64) *float64 { return &v }

type DynamicOptions struct {
	Content interface{} `bson:"content,omitempty" json:"content,omitempty"`
}

// Setting is the schema half of an attribute. Exactly one options payload,
// the one matching Type, is populated after NormalizeSetting.
type Setting struct {
	ID       string        `bson:"id" json:"id"`
	Name     string        `bson:"name" json:"name" validate:"required"`
	Type     AttributeType `bson:"type" json:"type" validate:"required"`
	Required bool          `bson:"required" json:"required"`
	Unique   bool          `bson:"unique" json:"unique"`
	Private  bool          `bson:"private" json:"private"`

	Text     *TextOptions     `bson:"text,omitempty" json:"text,omitempty"`
	Code     *CodeOptions     `bson:"code,omitempty" json:"code,omitempty"`
	Media    *MediaOptions    `bson:"media,omitempty" json:"media,omitempty"`
	Document *DocumentOptions `bson:"document,omitempty" json:"document,omitempty"`
	Date     *DateOptions     `bson:"date,omitempty" json:"date,omitempty"`
	Number   *NumberOptions   `bson:"number,omitempty" json:"number,omitempty"`
	Decimal  *DecimalOptions  `bson:"decimal,omitempty" json:"decimal,omitempty"`
	Dynamic  *DynamicOptions  `bson:"dynamic,omitempty" json:"dynamic,omitempty"`
}

// NormalizeSetting fills the options payload for s.Type with defaults and
// drops payloads belonging to other types.
func NormalizeSetting(s *Setting) error {
	if !s.Type.Valid() {
		return apperror.Validation(fmt.Sprintf("unsupported attribute type %q", s.Type))
	}

	text, code, media, document := s.Text, s.Code, s.Media, s.Document
	date, number, decimal, dynamic := s.Date, s.Number, s.Decimal, s.Dynamic
	s.Text, s.Code, s.Media, s.Document = nil, nil, nil, nil
	s.Date, s.Number, s.Decimal, s.Dynamic = nil, nil, nil, nil

	switch s.Type {
	case TypeText:
		if text == nil {
			text = &TextOptions{}
		}
		if text.TextType == "" {
			text.TextType = TextShort
		}
		if text.MaxLength == 0 {
			text.MaxLength = defaultMaxLength
			if text.TextType != TextShort {
				text.MaxLength = defaultLongLength
			}
		}
		s.Text = text
	case TypeCode:
		if code == nil {
			code = &CodeOptions{}
		}
		if code.MaxLength == 0 {
			code.MaxLength = defaultMaxLength
		}
		if code.Language == "" {
			code.Language = "plaintext"
		}
		s.Code = code
	case TypeMedia:
		if media == nil {
			media = &MediaOptions{}
		}
		if media.MediaType == "" {
			media.MediaType = string(storage.FileTypeImage)
		}
		if media.MaxSize == 0 {
			media.MaxSize = defaultMaxSize
		}
		s.Media = media
	case TypeDocument:
		if document == nil {
			document = &DocumentOptions{}
		}
		if document.MaxSize == 0 {
			document.MaxSize = defaultMaxSize
		}
		s.Document = document
	case TypeDate:
		if date == nil {
			date = &DateOptions{}
		}
		if date.Format == "" {
			date.Format = defaultDate
		}
		if _, ok := dateLayouts[date.Format]; !ok {
			return apperror.Validation(fmt.Sprintf("unsupported date format %q", date.Format))
		}
		s.Date = date
	case TypeNumber:
		if number == nil {
			number = &NumberOptions{}
		}
		if number.Min == nil {
			number.Min = bound(math.MinInt32)
		}
		if number.Max == nil {
			number.Max = bound(math.MaxInt32)
		}
		if *number.Min > *number.Max {
			return apperror.Validation("number min is greater than max")
		}
		s.Number = number
	case TypeDecimal:
		if decimal == nil {
			decimal = &DecimalOptions{}
		}
		if decimal.Min == nil {
			decimal.Min = bound(-math.MaxFloat32)
		}
		if decimal.Max == nil {
			decimal.Max = bound(math.MaxFloat32)
		}
		if decimal.Precision == [2]int{} {
			decimal.Precision = [2]int{10, 2}
		}
		if *decimal.Min > *decimal.Max {
			return apperror.Validation("decimal min is greater than max")
		}
		s.Decimal = decimal
	case TypeDynamic:
		if dynamic == nil {
			dynamic = &DynamicOptions{}
		}
		s.Dynamic = dynamic
	case TypeBoolean, TypeComment, TypeReaction, TypePost, TypePosts:
	}
	return nil
}

// MaxUploadSize is the per-file limit for upload-backed types, 0 otherwise
func (s *Setting) MaxUploadSize() int64 {
	switch {
	case s.Type == TypeMedia && s.Media != nil:
		return s.Media.MaxSize
	case s.Type == TypeDocument && s.Document != nil:
		return s.Document.MaxSize
	}
	return 0
}

type ContentKind string

const (
	ContentPlain    ContentKind = "plain"
	ContentUpload   ContentKind = "upload"
	ContentComment  ContentKind = "comment"
	ContentReaction ContentKind = "reaction"
)

// ContentKindFor decides which content shape a type carries
func ContentKindFor(t AttributeType) ContentKind {
	switch t {
	case TypeMedia, TypeDocument:
		return ContentUpload
	case TypeComment:
		return ContentComment
	case TypeReaction:
		return ContentReaction
	case TypeText, TypeCode, TypeDate, TypeNumber, TypeDecimal, TypeBoolean, TypeDynamic, TypePost, TypePosts:
		return ContentPlain
	}
	return ContentPlain
}

type MediaContent struct {
	URL          string              `bson:"url" json:"url"`
	FileName     string              `bson:"fileName" json:"fileName"`
	FileID       string              `bson:"fileId,omitempty" json:"fileId,omitempty"`
	Size         int64               `bson:"size,omitempty" json:"size,omitempty"`
	Dimensions   *storage.Dimensions `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	ThumbnailURL string              `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
}

// UploadContent accumulates the files delivered by parallel upload sessions
type UploadContent struct {
	SessionID string         `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	Total     int            `bson:"total,omitempty" json:"total,omitempty"`
	GroupID   string         `bson:"groupId,omitempty" json:"groupId,omitempty"`
	Files     []MediaContent `bson:"files" json:"files"`
}

type Comment struct {
	ID        string    `bson:"id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Text      string    `bson:"text" json:"text"`
	Votes     int       `bson:"votes" json:"votes"`
	Replies   []Comment `bson:"replies" json:"replies"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// CommentContent is the root of a post's comment thread
type CommentContent struct {
	Ref      string    `bson:"ref" json:"ref"`
	Username string    `bson:"username" json:"username"`
	Votes    int       `bson:"votes" json:"votes"`
	Replies  []Comment `bson:"replies" json:"replies"`
}

type ReactionContent struct {
	Counts map[string]int `bson:"counts" json:"counts"`
}

// Content is the value half of an attribute. Which field is meaningful
// depends on Kind.
type Content struct {
	ID       string           `bson:"id" json:"id"`
	Kind     ContentKind      `bson:"kind" json:"kind"`
	Value    interface{}      `bson:"value,omitempty" json:"value,omitempty"`
	Upload   *UploadContent   `bson:"upload,omitempty" json:"upload,omitempty"`
	Comment  *CommentContent  `bson:"comment,omitempty" json:"comment,omitempty"`
	Reaction *ReactionContent `bson:"reaction,omitempty" json:"reaction,omitempty"`
}

// Attribute pairs a setting with its content under one stable id
type Attribute struct {
	ID      string  `bson:"id" json:"id"`
	Setting Setting `bson:"setting" json:"setting"`
	Content Content `bson:"content" json:"content"`
}

// NewAttribute normalizes the setting and assigns a fresh id to the
// attribute, its setting and its content. Upload-backed types always start
// with empty upload content; whatever content was passed is ignored since
// files only arrive through upload sessions.
func NewAttribute(setting Setting, content *Content) (Attribute, error) {
	if err := NormalizeSetting(&setting); err != nil {
		return Attribute{}, err
	}

	id := uuid.NewString()
	setting.ID = id

	var c Content
	switch ContentKindFor(setting.Type) {
	case ContentUpload:
		c = Content{Upload: &UploadContent{Files: []MediaContent{}}}
	case ContentComment:
		c = Content{Comment: &CommentContent{Replies: []Comment{}}}
		if content != nil && content.Comment != nil {
			c.Comment.Ref = content.Comment.Ref
			c.Comment.Username = content.Comment.Username
		}
	case ContentReaction:
		c = Content{Reaction: &ReactionContent{Counts: map[string]int{}}}
	case ContentPlain:
		if content != nil {
			if err := ValidateContent(&setting, content); err != nil {
				return Attribute{}, err
			}
			c = Content{Value: content.Value}
		}
	}
	c.ID = id
	c.Kind = ContentKindFor(setting.Type)

	return Attribute{ID: id, Setting: setting, Content: c}, nil
}

// ApplyContent replaces the content wholesale, keeping its id. A nil
// content is a no-op. Upload-backed content can only change through
// the upload protocol.
func (a *Attribute) ApplyContent(c *Content) error {
	if c == nil {
		return nil
	}
	if ContentKindFor(a.Setting.Type) == ContentUpload {
		return apperror.Validation(fmt.Sprintf("content of %s attribute %q can only be changed by uploading files", a.Setting.Type, a.Setting.Name))
	}
	if err := ValidateContent(&a.Setting, c); err != nil {
		return err
	}

	next := *c
	next.ID = a.ID
	next.Kind = ContentKindFor(a.Setting.Type)
	a.Content = next
	return nil
}

// ApplySetting replaces the setting wholesale, keeping its id. The type may
// change; existing content is neither migrated nor re-validated.
func (a *Attribute) ApplySetting(s *Setting) error {
	if s == nil {
		return nil
	}

	next := *s
	if err := NormalizeSetting(&next); err != nil {
		return err
	}
	next.ID = a.ID
	a.Setting = next
	return nil
}
