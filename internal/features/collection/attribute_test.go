package collection

import (
	"math"
	"strings"
	"testing"

	"go-cms/internal/common/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSettingDefaults(t *testing.T) {
	text := Setting{Name: "Title", Type: TypeText}
	require.NoError(t, NormalizeSetting(&text))
	assert.Equal(t, 255, text.Text.MaxLength)
	assert.Equal(t, 0, text.Text.MinLength)
	assert.Equal(t, TextShort, text.Text.TextType)

	rich := Setting{Name: "Body", Type: TypeText, Text: &TextOptions{TextType: TextRich}}
	require.NoError(t, NormalizeSetting(&rich))
	assert.Greater(t, rich.Text.MaxLength, 255)

	code := Setting{Name: "Snippet", Type: TypeCode}
	require.NoError(t, NormalizeSetting(&code))
	assert.Equal(t, "plaintext", code.Code.Language)

	media := Setting{Name: "Gallery", Type: TypeMedia}
	require.NoError(t, NormalizeSetting(&media))
	assert.Equal(t, "image", media.Media.MediaType)
	assert.Equal(t, int64(10<<20), media.Media.MaxSize)

	doc := Setting{Name: "Attachment", Type: TypeDocument}
	require.NoError(t, NormalizeSetting(&doc))
	assert.Equal(t, int64(10<<20), doc.Document.MaxSize)

	date := Setting{Name: "Published", Type: TypeDate}
	require.NoError(t, NormalizeSetting(&date))
	assert.Equal(t, "YYYY-MM-DD", date.Date.Format)

	decimal := Setting{Name: "Price", Type: TypeDecimal}
	require.NoError(t, NormalizeSetting(&decimal))
	assert.Equal(t, [2]int{10, 2}, decimal.Decimal.Precision)
}

func TestNormalizeSettingDefaultsEachNumericBound(t *testing.T) {
	onlyMax := Setting{Name: "Stock", Type: TypeNumber, Number: &NumberOptions{Max: bound(0)}}
	require.NoError(t, NormalizeSetting(&onlyMax))
	assert.Equal(t, float64(math.MinInt32), *onlyMax.Number.Min)
	assert.Equal(t, 0.0, *onlyMax.Number.Max)

	zeroes := Setting{Name: "Flag", Type: TypeNumber, Number: &NumberOptions{Min: bound(0), Max: bound(0)}}
	require.NoError(t, NormalizeSetting(&zeroes))
	assert.Equal(t, 0.0, *zeroes.Number.Min)
	assert.Equal(t, 0.0, *zeroes.Number.Max)

	onlyMin := Setting{Name: "Price", Type: TypeDecimal, Decimal: &DecimalOptions{Min: bound(0)}}
	require.NoError(t, NormalizeSetting(&onlyMin))
	assert.Equal(t, 0.0, *onlyMin.Decimal.Min)
	assert.Equal(t, float64(math.MaxFloat32), *onlyMin.Decimal.Max)

	inverted := Setting{Name: "Stock", Type: TypeNumber, Number: &NumberOptions{Min: bound(1), Max: bound(0)}}
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(NormalizeSetting(&inverted)))

	invertedDecimal := Setting{Name: "Price", Type: TypeDecimal, Decimal: &DecimalOptions{Min: bound(0.5), Max: bound(-0.5)}}
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(NormalizeSetting(&invertedDecimal)))
}

func TestNormalizeSettingDropsForeignPayloads(t *testing.T) {
	s := Setting{Name: "Flag", Type: TypeBoolean, Text: &TextOptions{MaxLength: 3}, Media: &MediaOptions{}}
	require.NoError(t, NormalizeSetting(&s))
	assert.Nil(t, s.Text)
	assert.Nil(t, s.Media)
}

func TestNormalizeSettingRejectsUnknownType(t *testing.T) {
	s := Setting{Name: "X", Type: "spreadsheet"}
	err := NormalizeSetting(&s)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestContentKindFor(t *testing.T) {
	cases := map[AttributeType]ContentKind{
		TypeMedia:    ContentUpload,
		TypeDocument: ContentUpload,
		TypeComment:  ContentComment,
		TypeReaction: ContentReaction,
		TypeText:     ContentPlain,
		TypeBoolean:  ContentPlain,
		TypePosts:    ContentPlain,
	}
	for typ, want := range cases {
		assert.Equal(t, want, ContentKindFor(typ), string(typ))
	}
}

func TestNewAttributeForcesEmptyUploadContent(t *testing.T) {
	supplied := &Content{
		Value:  "ignored",
		Upload: &UploadContent{SessionID: "s9", Files: []MediaContent{{URL: "storage/x/y", FileName: "y.png"}}},
	}

	a, err := NewAttribute(Setting{Name: "Gallery", Type: TypeMedia}, supplied)
	require.NoError(t, err)

	assert.Equal(t, ContentUpload, a.Content.Kind)
	assert.Nil(t, a.Content.Value)
	require.NotNil(t, a.Content.Upload)
	assert.Empty(t, a.Content.Upload.SessionID)
	assert.Empty(t, a.Content.Upload.Files)
}

func TestNewAttributeStampsOneID(t *testing.T) {
	a, err := NewAttribute(Setting{ID: "client-id", Name: "Title", Type: TypeText}, &Content{ID: "other", Value: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, "client-id", a.ID)
	assert.Equal(t, a.ID, a.Setting.ID)
	assert.Equal(t, a.ID, a.Content.ID)
	assert.Equal(t, "hello", a.Content.Value)
}

func TestNewAttributeInitialisesCommentAndReactionRoots(t *testing.T) {
	comment, err := NewAttribute(Setting{Name: "Comment", Type: TypeComment},
		&Content{Comment: &CommentContent{Ref: "blog_abcdefgh", Username: "alice", Votes: 99}})
	require.NoError(t, err)
	require.NotNil(t, comment.Content.Comment)
	assert.Equal(t, "blog_abcdefgh", comment.Content.Comment.Ref)
	assert.Equal(t, "alice", comment.Content.Comment.Username)
	assert.Zero(t, comment.Content.Comment.Votes)
	assert.NotNil(t, comment.Content.Comment.Replies)

	reaction, err := NewAttribute(Setting{Name: "Reaction", Type: TypeReaction}, nil)
	require.NoError(t, err)
	require.NotNil(t, reaction.Content.Reaction)
	assert.Empty(t, reaction.Content.Reaction.Counts)
}

func TestNewAttributeValidatesPlainContent(t *testing.T) {
	_, err := NewAttribute(Setting{Name: "Title", Type: TypeText, Text: &TextOptions{MaxLength: 3}}, &Content{Value: "too long"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestAttributeIDIsStableAcrossUpdates(t *testing.T) {
	a, err := NewAttribute(Setting{Name: "Title", Type: TypeText}, &Content{Value: "one"})
	require.NoError(t, err)
	id := a.ID

	for i := 0; i < 5; i++ {
		require.NoError(t, a.ApplyContent(&Content{ID: "spoofed", Value: strings.Repeat("x", i)}))
		require.NoError(t, a.ApplySetting(&Setting{ID: "spoofed", Name: "Heading", Type: TypeText}))
	}

	assert.Equal(t, id, a.ID)
	assert.Equal(t, id, a.Setting.ID)
	assert.Equal(t, id, a.Content.ID)
	assert.Equal(t, "Heading", a.Setting.Name)
	assert.Equal(t, "xxxx", a.Content.Value)
}

func TestApplyNilIsNoop(t *testing.T) {
	a, err := NewAttribute(Setting{Name: "Title", Type: TypeText}, &Content{Value: "keep"})
	require.NoError(t, err)
	before := a

	require.NoError(t, a.ApplyContent(nil))
	require.NoError(t, a.ApplySetting(nil))
	assert.Equal(t, before, a)
}

func TestApplyContentRejectsUploadAttributes(t *testing.T) {
	a, err := NewAttribute(Setting{Name: "Gallery", Type: TypeMedia}, nil)
	require.NoError(t, err)

	err = a.ApplyContent(&Content{Upload: &UploadContent{Files: []MediaContent{{URL: "x"}}}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Empty(t, a.Content.Upload.Files)
}

// Changing the declared type keeps the old content untouched. Nothing migrates
// or re-validates it, so a text value can end up under a number setting.
func TestApplySettingTypeChangeLeavesContentUnmigrated(t *testing.T) {
	a, err := NewAttribute(Setting{Name: "Count", Type: TypeText}, &Content{Value: "not a number"})
	require.NoError(t, err)

	require.NoError(t, a.ApplySetting(&Setting{Name: "Count", Type: TypeNumber}))

	assert.Equal(t, TypeNumber, a.Setting.Type)
	assert.Equal(t, "not a number", a.Content.Value)
	assert.Equal(t, ContentPlain, a.Content.Kind)
	assert.Error(t, ValidateContent(&a.Setting, &a.Content))
}

func TestValidateContent(t *testing.T) {
	setting := func(s Setting) *Setting {
		require.NoError(t, NormalizeSetting(&s))
		return &s
	}

	cases := []struct {
		name    string
		setting *Setting
		value   interface{}
		valid   bool
	}{
		{"text within bounds", setting(Setting{Name: "t", Type: TypeText, Text: &TextOptions{MinLength: 2, MaxLength: 5}}), "abc", true},
		{"text too short", setting(Setting{Name: "t", Type: TypeText, Text: &TextOptions{MinLength: 2, MaxLength: 5}}), "a", false},
		{"text counts runes", setting(Setting{Name: "t", Type: TypeText, Text: &TextOptions{MaxLength: 2}}), "éé", true},
		{"text wrong type", setting(Setting{Name: "t", Type: TypeText}), 12.0, false},
		{"number integer", setting(Setting{Name: "n", Type: TypeNumber, Number: &NumberOptions{Min: bound(0), Max: bound(10)}}), 7.0, true},
		{"number fraction", setting(Setting{Name: "n", Type: TypeNumber}), 7.5, false},
		{"number out of range", setting(Setting{Name: "n", Type: TypeNumber, Number: &NumberOptions{Min: bound(0), Max: bound(10)}}), 11.0, false},
		{"number zero max", setting(Setting{Name: "n", Type: TypeNumber, Number: &NumberOptions{Max: bound(0)}}), 5.0, false},
		{"number zero max allows negatives", setting(Setting{Name: "n", Type: TypeNumber, Number: &NumberOptions{Max: bound(0)}}), -5.0, true},
		{"decimal fraction", setting(Setting{Name: "d", Type: TypeDecimal}), 7.5, true},
		{"decimal zero min", setting(Setting{Name: "d", Type: TypeDecimal, Decimal: &DecimalOptions{Min: bound(0)}}), -0.5, false},
		{"decimal zero min open above", setting(Setting{Name: "d", Type: TypeDecimal, Decimal: &DecimalOptions{Min: bound(0)}}), 1e6, true},
		{"boolean", setting(Setting{Name: "b", Type: TypeBoolean}), true, true},
		{"boolean as string", setting(Setting{Name: "b", Type: TypeBoolean}), "true", false},
		{"date default format", setting(Setting{Name: "d", Type: TypeDate}), "2024-02-29", true},
		{"date wrong format", setting(Setting{Name: "d", Type: TypeDate}), "29/02/2024", false},
		{"date custom format", setting(Setting{Name: "d", Type: TypeDate, Date: &DateOptions{Format: "DD/MM/YYYY"}}), "29/02/2024", true},
		{"optional nil", setting(Setting{Name: "t", Type: TypeText}), nil, true},
		{"required nil", setting(Setting{Name: "t", Type: TypeText, Required: true}), nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateContent(tc.setting, &Content{Value: tc.value})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			}
		})
	}
}

func TestValidateContentRejectsMismatchedKind(t *testing.T) {
	s := Setting{Name: "t", Type: TypeText}
	require.NoError(t, NormalizeSetting(&s))
	err := ValidateContent(&s, &Content{Kind: ContentUpload, Value: "x"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestWithoutPrivate(t *testing.T) {
	public, err := NewAttribute(Setting{Name: "Title", Type: TypeText}, nil)
	require.NoError(t, err)
	secret, err := NewAttribute(Setting{Name: "Notes", Type: TypeText, Private: true}, nil)
	require.NoError(t, err)

	c := Collection{Attributes: []Attribute{public, secret}}
	stripped := c.WithoutPrivate()

	require.Len(t, stripped.Attributes, 1)
	assert.Equal(t, public.ID, stripped.Attributes[0].ID)
	assert.Len(t, c.Attributes, 2)
}
