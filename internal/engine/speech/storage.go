package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Google Cloud Storage JSON API — bucket check/create and media upload.
// Used only for audio files too large for inline recognition.

const storageBaseURL = "https://storage.googleapis.com"

// transcriptBucket is the per-project destination bucket name.
func transcriptBucket() string {
	return engine.Cfg.GCPProjectID + "-transcripts"
}

// ensureBucket checks the destination bucket exists, creating it on 404.
func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/storage/v1/b/%s", storageBaseURL, url.PathEscape(bucket)), nil)
		if err != nil {
			return nil, err
		}
		return c.hc.Do(req)
	})
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return c.createBucket(ctx, bucket)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &engine.UpstreamError{Service: "gcs", Status: resp.StatusCode, Body: string(snippet)}
	}
}

func (c *Client) createBucket(ctx context.Context, bucket string) error {
	body, err := json.Marshal(map[string]string{"name": bucket})
	if err != nil {
		return err
	}
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/storage/v1/b?project=%s", storageBaseURL, url.QueryEscape(engine.Cfg.GCPProjectID)),
			bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.hc.Do(req)
	})
	if err != nil {
		return fmt.Errorf("bucket create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &engine.UpstreamError{Service: "gcs", Status: resp.StatusCode, Body: string(snippet)}
	}
	return nil
}

// uploadObject media-uploads data into the bucket and returns the gs:// URI.
func (c *Client) uploadObject(ctx context.Context, bucket, object string, data []byte) (string, error) {
	engine.IncrStorageUpload()

	contentType := mime.TypeByExtension(filepath.Ext(object))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
				storageBaseURL, url.PathEscape(bucket), url.QueryEscape(object)),
			bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return c.hc.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("object upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", &engine.UpstreamError{Service: "gcs", Status: resp.StatusCode, Body: string(snippet)}
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
