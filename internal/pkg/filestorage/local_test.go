package filestorage

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid GIF
var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)
	return ls
}

func TestSaveDataURI(t *testing.T) {
	ls := newStorage(t)

	url, err := ls.SaveDataURI("data:image/gif;base64,"+base64.StdEncoding.EncodeToString(gif), "events")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/events/"))
	assert.True(t, strings.HasSuffix(url, ".gif"))

	stored, err := os.ReadFile(ls.GetFullPath(url))
	require.NoError(t, err)
	assert.Equal(t, gif, stored)

	require.NoError(t, ls.DeleteFile(url))
	_, err = os.Stat(ls.GetFullPath(url))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ls.DeleteFile(url))
}

func TestSaveDataURIRejects(t *testing.T) {
	ls := newStorage(t)

	_, err := ls.SaveDataURI("https://example.com/a.png", "")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	_, err = ls.SaveDataURI("data:image/png,rawbytes", "")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	_, err = ls.SaveDataURI("data:image/png;base64,!!!", "")
	assert.ErrorIs(t, err, ErrInvalidDataURI)

	text := base64.StdEncoding.EncodeToString([]byte("just some text"))
	_, err = ls.SaveDataURI("data:image/png;base64,"+text, "")
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestSaveFile(t *testing.T) {
	ls := newStorage(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "pixel.gif")
	require.NoError(t, err)
	_, err = part.Write(gif)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, header, err := req.FormFile("file")
	require.NoError(t, err)

	url, err := ls.SaveFile(header)
	require.NoError(t, err)
	assert.FileExists(t, ls.GetFullPath(url))
}

func TestGetFullPathStaysInsideBase(t *testing.T) {
	ls := newStorage(t)

	assert.Equal(t, "", ls.GetFullPath("https://elsewhere.example/a.png"))
	assert.True(t, strings.HasPrefix(ls.GetFullPath("http://localhost:8080/uploads/../../etc/passwd"), ls.basePath))
	assert.True(t, IsDataURI("data:image/png;base64,AA=="))
	assert.False(t, IsDataURI("https://x"))
}
