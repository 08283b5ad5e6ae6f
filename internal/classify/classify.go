// Package classify decides whether a garment image is a top, a bottom or
// shoes by asking a multimodal model.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
)

var (
	ErrInvalidImageURL = errors.New("invalid image URL")
	ErrInvalidResponse = errors.New("invalid category response")
)

const (
	maxImageBytes = 10 << 20

	prompt = "Analyze this clothing image. Respond with a single JSON object containing one key, 'category'. " +
		"The value for 'category' must be one of the following exact strings: 'upper_body', 'lower_body', or 'shoes'."
)

// Model is a multimodal text generator.
type Model interface {
	Generate(ctx context.Context, image []byte, format, prompt string) (string, error)
}

type Classifier struct {
	model  Model
	client *http.Client
	logger *slog.Logger
}

func New(model Model, fetchTimeout time.Duration) *Classifier {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Classifier{
		model:  model,
		client: &http.Client{Timeout: fetchTimeout},
		logger: slog.Default().With("component", "classifier"),
	}
}

func (c *Classifier) Classify(ctx context.Context, imageURL string) (models.Category, error) {
	u, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidImageURL, imageURL)
	}

	image, format, err := c.fetchImage(ctx, u.String())
	if err != nil {
		return "", err
	}

	text, err := c.model.Generate(ctx, image, format, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to classify image: %w", err)
	}

	category, err := ParseCategory(text)
	if err != nil {
		return "", err
	}

	c.logger.Info("image classified", "url", u.String(), "category", category)
	return category, nil
}

func (c *Classifier) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	return data, imageFormat(resp.Header.Get("Content-Type")), nil
}

// imageFormat maps a Content-Type to the short format name the model
// expects, defaulting to jpeg.
func imageFormat(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "jpeg"
	}
	return strings.TrimPrefix(mediaType, "image/")
}

// ParseCategory accepts either {"category": "..."} or a bare category string,
// optionally wrapped in a markdown code block.
func ParseCategory(text string) (models.Category, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload struct {
		Category string `json:"category"`
	}
	raw := cleaned
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		raw = payload.Category
	}
	raw = strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'`))

	switch raw {
	case "upper_body":
		return models.CategoryTop, nil
	case "lower_body":
		return models.CategoryBottom, nil
	case "shoes":
		return models.CategoryShoes, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidResponse, text)
}
