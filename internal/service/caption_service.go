package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// CaptionGenerator asks a vision-language model for a caption. It returns
// an empty string when no caption could be produced.
type CaptionGenerator interface {
	Generate(ctx context.Context, brand *models.Brand, media *models.MediaAsset) string
}

type chatCaptionGenerator struct {
	cfg    config.Caption
	client *http.Client
}

func NewCaptionGenerator(cfg config.Caption) CaptionGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &chatCaptionGenerator{cfg: cfg, client: &http.Client{}}
}

func (g *chatCaptionGenerator) Generate(ctx context.Context, brand *models.Brand, media *models.MediaAsset) string {
	if g.cfg.APIURL == "" || media == nil {
		return ""
	}

	caption, err := g.complete(ctx, brand, media)
	if err != nil {
		captionFailuresTotal.Inc()
		slog.Warn("caption generation failed", "media_id", media.ID, "error", err)
		return ""
	}
	return caption
}

func (g *chatCaptionGenerator) complete(ctx context.Context, brand *models.Brand, media *models.MediaAsset) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	imageURL := media.FileURL
	if media.MediaType == models.MediaTypeVideo && media.ThumbnailURL != "" {
		imageURL = media.ThumbnailURL
	}

	body, err := json.Marshal(transfer.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []transfer.ChatMessage{{
			Role: "user",
			Content: []transfer.ChatContent{
				{Type: "text", Text: captionPrompt(brand, media)},
				{Type: "image_url", ImageURL: &transfer.ChatImageURL{URL: imageURL}},
			},
		}},
		MaxTokens: 400,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("caption api returned status %d", resp.StatusCode)
	}

	var completion transfer.ChatCompletionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&completion); err != nil {
		return "", fmt.Errorf("decoding caption response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("caption api returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func captionPrompt(brand *models.Brand, media *models.MediaAsset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a social media caption for this %s.", media.MediaType)
	if brand != nil {
		fmt.Fprintf(&b, "\nBrand: %s", brand.Name)
		if brand.Description != "" {
			fmt.Fprintf(&b, "\nAbout: %s", brand.Description)
		}
		if brand.Voice != "" {
			fmt.Fprintf(&b, "\nVoice: %s", brand.Voice)
		}
		if brand.Audience != "" {
			fmt.Fprintf(&b, "\nAudience: %s", brand.Audience)
		}
		if brand.Hashtags != "" {
			fmt.Fprintf(&b, "\nHashtags to consider: %s", brand.Hashtags)
		}
	}
	b.WriteString("\nReply with the caption text only.")
	return b.String()
}

type CaptionService interface {
	Generate(ctx context.Context, userID int64, req *transfer.CaptionRequest) (string, error)
}

type captionService struct {
	br  repository.BrandRepository
	ma  repository.MediaAssetRepository
	gen CaptionGenerator
}

func NewCaptionService(br repository.BrandRepository, ma repository.MediaAssetRepository, gen CaptionGenerator) CaptionService {
	return &captionService{br: br, ma: ma, gen: gen}
}

// Generate checks ownership of the brand and media, then returns whatever
// the generator produced. A generator failure is not an error.
func (s *captionService) Generate(ctx context.Context, userID int64, req *transfer.CaptionRequest) (string, error) {
	brand, err := s.br.GetByID(ctx, userID, req.BrandID)
	if err != nil {
		return "", &StoreError{Op: "load brand", Err: err}
	}
	if brand == nil {
		return "", fmt.Errorf("brand %d: %w", req.BrandID, ErrNotFound)
	}

	owned, err := s.ma.CheckByUserID(ctx, req.MediaID, userID)
	if err != nil {
		return "", &StoreError{Op: "check media", Err: err}
	}
	if !owned {
		return "", fmt.Errorf("media %d: %w", req.MediaID, ErrNotFound)
	}

	media, err := s.ma.GetByID(ctx, req.MediaID)
	if err != nil {
		return "", &StoreError{Op: "load media", Err: err}
	}
	return s.gen.Generate(ctx, brand, media), nil
}
