package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Usernames are compared lower-cased; letters, digits, dots and underscores
	UsernamePattern = `^[A-Za-z0-9_.]+$`

	// Inline images must be base64 data URIs of an image type
	DataImagePattern = `^data:image/[a-z0-9.+-]+;base64,`
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Username  *regexp.Regexp
	DataImage *regexp.Regexp
}{
	Username:  regexp.MustCompile(UsernamePattern),
	DataImage: regexp.MustCompile(DataImagePattern),
}

// Tags registered by Register
const (
	TagUsername = "username"
	TagImage    = "imagesrc"
)

// Register adds the custom binding tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagUsername, validateUsername); err != nil {
		return err
	}
	return v.RegisterValidation(TagImage, validateImage)
}

func validateUsername(fl validator.FieldLevel) bool {
	return IsUsername(fl.Field().String())
}

func validateImage(fl validator.FieldLevel) bool {
	return IsImageSource(fl.Field().String())
}

// IsUsername reports whether s is an acceptable username
func IsUsername(s string) bool {
	return CompiledPatterns.Username.MatchString(strings.TrimSpace(s))
}

// IsImageSource accepts an absolute http(s) URL or an image data URI
func IsImageSource(s string) bool {
	if strings.HasPrefix(s, "data:") {
		return CompiledPatterns.DataImage.MatchString(s)
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
