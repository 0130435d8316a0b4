package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field, name string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("name", "x"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))
	return r
}

func TestReadText(t *testing.T) {
	t.Parallel()

	r := multipartRequest(t, "plan_file", "Plan.JSON", []byte(`{"activities":[]}`))
	f, err := ReadText(r, "plan_file")
	require.NoError(t, err)
	assert.Equal(t, "Plan.JSON", f.Name)
	assert.Equal(t, ".json", f.Ext())
	assert.Equal(t, `{"activities":[]}`, string(f.Bytes))
	assert.True(t, f.Mime.Is("application/json"))
}

func TestReadText_CSVAndMalformedJSONAreText(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"data.csv":  "time_utc,a\n2024-001T00:00:00,1\n",
		"plan.json": `{"activities":[{"id":1}], "broken": [`,
	} {
		r := multipartRequest(t, "file", name, []byte(body))
		_, err := ReadText(r, "file")
		assert.NoError(t, err, name)
	}
}

func TestReadText_RejectsBinary(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	r := multipartRequest(t, "file", "image.json", png)
	_, err := ReadText(r, "file")
	assert.ErrorIs(t, err, ErrNotText)
}

func TestReadText_Missing(t *testing.T) {
	t.Parallel()

	r := multipartRequest(t, "", "", nil)
	_, err := ReadText(r, "plan_file")
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = ReadText(httptest.NewRequest(http.MethodPost, "/", nil), "plan_file")
	assert.ErrorIs(t, err, ErrMissingFile)
}

func TestReadText_EmptyFilePassesThrough(t *testing.T) {
	t.Parallel()

	r := multipartRequest(t, "file", "empty.json", nil)
	f, err := ReadText(r, "file")
	require.NoError(t, err)
	assert.Empty(t, f.Bytes)
	assert.Nil(t, f.Mime)
}
