package collection

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"go-cms/internal/common/apperror"
)

var dateLayouts = map[string]string{
	"YYYY-MM-DD":           "2006-01-02",
	"DD/MM/YYYY":           "02/01/2006",
	"MM/DD/YYYY":           "01/02/2006",
	"YYYY-MM-DD HH:mm":     "2006-01-02 15:04",
	"YYYY-MM-DDTHH:mm:ssZ": time.RFC3339,
}

// ValidateContent checks a plain value against its setting. Upload, comment
// and reaction content are shaped by the service and only checked for kind.
func ValidateContent(s *Setting, c *Content) error {
	if c == nil {
		return nil
	}
	if c.Kind != "" && c.Kind != ContentKindFor(s.Type) {
		return apperror.Validation(fmt.Sprintf("content kind %q does not match attribute type %q", c.Kind, s.Type))
	}
	if ContentKindFor(s.Type) != ContentPlain {
		return nil
	}

	if c.Value == nil {
		if s.Required {
			return apperror.Validation(fmt.Sprintf("attribute %q is required", s.Name))
		}
		return nil
	}

	switch s.Type {
	case TypeText:
		return validateLength(s.Name, c.Value, s.Text.MinLength, s.Text.MaxLength)
	case TypeCode:
		return validateLength(s.Name, c.Value, s.Code.MinLength, s.Code.MaxLength)
	case TypeNumber:
		n, err := asNumber(s.Name, c.Value)
		if err != nil {
			return err
		}
		if n != math.Trunc(n) {
			return apperror.Validation(fmt.Sprintf("attribute %q must be an integer", s.Name))
		}
		return validateRange(s.Name, n, s.Number.Min, s.Number.Max, math.MinInt32, math.MaxInt32)
	case TypeDecimal:
		n, err := asNumber(s.Name, c.Value)
		if err != nil {
			return err
		}
		return validateRange(s.Name, n, s.Decimal.Min, s.Decimal.Max, -math.MaxFloat32, math.MaxFloat32)
	case TypeBoolean:
		if _, ok := c.Value.(bool); !ok {
			return apperror.Validation(fmt.Sprintf("attribute %q must be a boolean", s.Name))
		}
	case TypeDate:
		v, ok := c.Value.(string)
		if !ok {
			return apperror.Validation(fmt.Sprintf("attribute %q must be a date string", s.Name))
		}
		if _, err := time.Parse(dateLayouts[s.Date.Format], v); err != nil {
			return apperror.Validation(fmt.Sprintf("attribute %q must match %s", s.Name, s.Date.Format))
		}
	case TypePost, TypePosts:
		if _, ok := c.Value.(string); !ok {
			return apperror.Validation(fmt.Sprintf("attribute %q must reference a slug", s.Name))
		}
	case TypeDynamic:
	case TypeMedia, TypeDocument, TypeComment, TypeReaction:
	}
	return nil
}

func validateLength(name string, value interface{}, lo, hi int) error {
	v, ok := value.(string)
	if !ok {
		return apperror.Validation(fmt.Sprintf("attribute %q must be a string", name))
	}
	n := utf8.RuneCountInString(v)
	if n < lo || (hi > 0 && n > hi) {
		return apperror.Validation(fmt.Sprintf("attribute %q length must be between %d and %d", name, lo, hi))
	}
	return nil
}

func validateRange(name string, n float64, minBound, maxBound *float64, lo, hi float64) error {
	if minBound != nil {
		lo = *minBound
	}
	if maxBound != nil {
		hi = *maxBound
	}
	if n < lo || n > hi {
		return apperror.Validation(fmt.Sprintf("attribute %q must be between %v and %v", name, lo, hi))
	}
	return nil
}

// JSON numbers decode as float64, BSON ones as int32/int64/float64
func asNumber(name string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, apperror.Validation(fmt.Sprintf("attribute %q must be a number", name))
}
