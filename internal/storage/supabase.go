package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage uploads objects through the Supabase Storage REST API.
// Requires the service role key (SUPABASE_KEY) so uploads bypass bucket RLS.
type SupabaseStorage struct {
	supabaseURL string
	serviceKey  string
	bucket      string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewSupabaseStorage creates a storage client for one bucket
func NewSupabaseStorage(supabaseURL, serviceKey, bucket string, logger *slog.Logger) *SupabaseStorage {
	return &SupabaseStorage{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		bucket:      bucket,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// Error is a non-2xx answer from the storage API
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// storageErrorBody is the JSON error shape returned by Supabase Storage
type storageErrorBody struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Upload writes content at path, overwriting any existing object
func (s *SupabaseStorage) Upload(ctx context.Context, path, contentType string, content io.Reader) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.supabaseURL, s.bucket, escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, content)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("x-upsert", "true")
	req.Header.Set("cache-control", "max-age=3600")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	s.logger.Debug("object uploaded", "bucket", s.bucket, "path", path)
	return nil
}

// PublicURL returns the public download URL of an object
func (s *SupabaseStorage) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.supabaseURL, s.bucket, escapePath(path))
}

// errorMessage prefers the API's message field, then its error field, then the raw body
func errorMessage(status int, body []byte) string {
	var parsed storageErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("storage responded with status %d", status)
}

// escapePath escapes each segment but keeps the separators
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
