package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUsername(t *testing.T) {
	assert.True(t, IsUsername("jane_doe"))
	assert.True(t, IsUsername("Jane.Doe42"))
	assert.False(t, IsUsername("jane doe"))
	assert.False(t, IsUsername("jane@doe"))
	assert.False(t, IsUsername(""))
}

func TestIsImageSource(t *testing.T) {
	assert.True(t, IsImageSource("https://cdn.example/a.png"))
	assert.True(t, IsImageSource("data:image/png;base64,iVBORw0KGgo="))
	assert.False(t, IsImageSource("data:text/plain;base64,aGk="))
	assert.False(t, IsImageSource("ftp://cdn.example/a.png"))
	assert.False(t, IsImageSource("/relative.png"))
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type form struct {
		Username string `validate:"required,username"`
		Image    string `validate:"omitempty,imagesrc"`
	}

	assert.NoError(t, v.Struct(form{Username: "jane_doe"}))
	assert.NoError(t, v.Struct(form{Username: "jane_doe", Image: "data:image/gif;base64,R0lG"}))
	assert.Error(t, v.Struct(form{Username: "jane doe"}))
	assert.Error(t, v.Struct(form{Username: "jane", Image: "not a url"}))
}
