package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testAPI) upload(token, field, filename string, content []byte) *http.Response {
	a.t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("note", "ignored")
	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/upload", &body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestUploadAndServe(t *testing.T) {
	api := newTestAPI(t, noLimits())
	token := api.register("a@x.com", "secret1").Token

	resp := api.upload(token, "resume", "CV.PDF", []byte("%PDF-1.4 resume"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fileURL := decodeBody[UploadResponse](t, resp).FileURL
	assert.Regexp(t, `^/uploads/\d+-[0-9a-z]{16}\.pdf$`, fileURL)

	stored, err := os.ReadFile(filepath.Join(api.dir, strings.TrimPrefix(fileURL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 resume", string(stored))

	// Retrieval is public.
	resp = api.do(http.MethodGet, fileURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 resume", string(data))
}

func TestUploadRejections(t *testing.T) {
	api := newTestAPI(t, noLimits())
	token := api.register("a@x.com", "secret1").Token

	resp := api.upload(token, "resume", "x.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[ErrorResponse](t, resp).Error, "unsupported file type")

	resp = api.upload(token, "resume", "big.docx", bytes.Repeat([]byte("a"), 2<<10))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[ErrorResponse](t, resp).Error, "file too large")

	resp = api.upload(token, "resume", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no file uploaded", decodeBody[ErrorResponse](t, resp).Error)

	resp = api.upload(token, "document", "x.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.upload("", "resume", "x.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	entries, err := os.ReadDir(api.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRequiresMultipart(t *testing.T) {
	api := newTestAPI(t, noLimits())
	token := api.register("a@x.com", "secret1").Token

	resp := api.do(http.MethodPost, "/api/upload", token, map[string]string{"resume": "x.pdf"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeDocumentNotFound(t *testing.T) {
	api := newTestAPI(t, noLimits())

	for _, path := range []string{"/uploads/missing.pdf", "/uploads/..%2Fsecret.pdf", "/uploads/notes.txt"} {
		resp := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
