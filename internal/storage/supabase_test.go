package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotUpsert, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"Key":"file_uploads/u/1-a.txt"}`))
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL+"/", "service-key", "file_uploads", testLogger())
	err := s.Upload(context.Background(), "u/1-my notes.txt", "text/plain", strings.NewReader("hello"))

	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/file_uploads/u/1-my%20notes.txt", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "true", gotUpsert)
	assert.Equal(t, "text/plain", gotType)
	assert.Equal(t, "hello", gotBody)
}

func TestUpload_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"statusCode":"404","error":"Bucket not found","message":"bucket not found"}`))
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL, "k", "missing", testLogger())
	err := s.Upload(context.Background(), "p", "", strings.NewReader("x"))

	var storageErr *Error
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, http.StatusNotFound, storageErr.Status)
	assert.Equal(t, "bucket not found", err.Error())
}

func TestPublicURL(t *testing.T) {
	s := NewSupabaseStorage("https://abc.supabase.co", "k", "file_uploads", testLogger())
	assert.Equal(t,
		"https://abc.supabase.co/storage/v1/object/public/file_uploads/u/1-a%20b.pdf",
		s.PublicURL("u/1-a b.pdf"),
	)
}
