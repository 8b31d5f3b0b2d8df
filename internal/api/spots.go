package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jengzang/spotmap-go/internal/models"
)

// ListSpots fetches one page of spots
func (c *Client) ListSpots(ctx context.Context, q models.SpotQuery) (*models.SpotPage, error) {
	var page models.SpotPage
	if err := c.call(ctx, http.MethodGet, "/spots", q.Values(), nil, &page); err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	return &page, nil
}

// GetSpot fetches a single spot
func (c *Client) GetSpot(ctx context.Context, id int64) (*models.Spot, error) {
	var spot models.Spot
	if err := c.call(ctx, http.MethodGet, spotPath(id), nil, nil, &spot); err != nil {
		return nil, fmt.Errorf("get spot %d: %w", id, err)
	}
	return &spot, nil
}

// CreateSpot submits a new spot
func (c *Client) CreateSpot(ctx context.Context, in models.SpotInput) (*models.Spot, error) {
	var spot models.Spot
	if err := c.call(ctx, http.MethodPost, "/spots", nil, in, &spot); err != nil {
		return nil, fmt.Errorf("create spot: %w", err)
	}
	return &spot, nil
}

// UpdateSpot applies a partial update
func (c *Client) UpdateSpot(ctx context.Context, id int64, patch models.SpotPatch) (*models.Spot, error) {
	var spot models.Spot
	if err := c.call(ctx, http.MethodPatch, spotPath(id), nil, patch, &spot); err != nil {
		return nil, fmt.Errorf("update spot %d: %w", id, err)
	}
	return &spot, nil
}

// DeleteSpot removes a spot
func (c *Client) DeleteSpot(ctx context.Context, id int64) error {
	if err := c.call(ctx, http.MethodDelete, spotPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete spot %d: %w", id, err)
	}
	return nil
}

// UploadImage attaches an image file to a spot
func (c *Client) UploadImage(ctx context.Context, spotID int64, filename string, file io.Reader, isPrimary bool) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	query := url.Values{"is_primary": {strconv.FormatBool(isPrimary)}}
	u := c.baseURL + spotPath(spotID) + "/images?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("upload image for spot %d: %w", spotID, err)
	}
	return nil
}

func spotPath(id int64) string {
	return "/spots/" + strconv.FormatInt(id, 10)
}
