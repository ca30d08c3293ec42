package testutil

import (
	"bytes"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
)

// FileHeaders builds parsed multipart file headers named names, each holding
// "content of <name>".
func FileHeaders(t testing.TB, names ...string) []*multipart.FileHeader {
	t.Helper()
	body, contentType := MultipartBody(t, nil, "images", names...)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}

// MultipartBody encodes fields plus one file part per name under fileField.
func MultipartBody(t testing.TB, fields map[string]string, fileField string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, n := range names {
		fw, err := w.CreateFormFile(fileField, n)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content of " + n))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}
