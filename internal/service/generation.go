package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/generator"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/repository"
)

// MaxPromptLength bounds what is stored and sent to the image API. The
// OpenAI Images endpoint rejects prompts above 1000 characters for the
// 512x512 size, so longer ones would only fail later with a less useful
// message.
const (
	MaxPromptLength = 1000

	// downloadNameRunes is how much of the prompt goes into the file name.
	downloadNameRunes = 20
)

// GenerationService owns the gallery: generate, list, delete, download.
type GenerationService struct {
	repo      repository.GenerationRepository
	generator generator.Generator
	lists     *listCache[model.Generation]
	events    events.Publisher
	assets    fs.FS
	client    *http.Client
	logger    *slog.Logger
}

// NewGenerationService wires the gallery. assets holds the static files that
// relative image URLs (e.g. "/placeholder.png") resolve against.
func NewGenerationService(
	repo repository.GenerationRepository,
	gen generator.Generator,
	c cache.Cache,
	pub events.Publisher,
	assets fs.FS,
	logger *slog.Logger,
) *GenerationService {
	return &GenerationService{
		repo:      repo,
		generator: gen,
		lists:     newListCache[model.Generation](c, logger),
		events:    pub,
		assets:    assets,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Preview runs the generator without saving anything. Backs the public
// POST /api/generate-image endpoint.
func (s *GenerationService) Preview(ctx context.Context, prompt string) (*generator.Result, error) {
	if prompt == "" {
		return nil, apperror.ValidationFailed("prompt", "Prompt is required")
	}
	res, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("service/generation: generating image: %w", upstream(err))
	}
	s.logger.Info("generated image", slog.Int("promptLength", len(prompt)))
	return res, nil
}

// Generate produces an image for prompt and saves it as a new generation
// owned by userID. Every call inserts a new row.
func (s *GenerationService) Generate(ctx context.Context, userID, prompt string) (*model.Generation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperror.ValidationFailed("prompt", "Prompt is required")
	}
	if len([]rune(prompt)) > MaxPromptLength {
		return nil, apperror.ValidationFailed("prompt",
			fmt.Sprintf("Prompt must be %d characters or fewer", MaxPromptLength))
	}

	res, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("service/generation: generating image: %w", upstream(err))
	}

	gen := &model.Generation{
		UserID:      userID,
		Prompt:      prompt,
		ImageURL:    res.ImageURL,
		Description: res.Description,
	}
	if err := s.repo.CreateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("service/generation: saving generation: %w", err)
	}

	s.lists.invalidate(ctx, cache.GenerationsKey(userID))
	publish(ctx, s.events, s.logger, events.New(events.GenerationCreated, userID, gen.ID))
	s.logger.Info("generation saved", slog.String("id", gen.ID), slog.String("userID", userID))

	return gen, nil
}

// List returns the user's generations, newest first.
func (s *GenerationService) List(ctx context.Context, userID string) ([]model.Generation, error) {
	gens, err := s.lists.load(ctx, cache.GenerationsKey(userID), func(ctx context.Context) ([]model.Generation, error) {
		return s.repo.ListGenerations(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("service/generation: listing: %w", err)
	}
	return gens, nil
}

func (s *GenerationService) Get(ctx context.Context, userID, id string) (*model.Generation, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "generation ID is required")
	}
	gen, err := s.repo.GetGeneration(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service/generation: getting %s: %w", id, err)
	}
	return gen, nil
}

// Delete removes exactly one generation owned by userID.
func (s *GenerationService) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "generation ID is required")
	}
	if err := s.repo.DeleteGeneration(ctx, userID, id); err != nil {
		return fmt.Errorf("service/generation: deleting %s: %w", id, err)
	}

	s.lists.invalidate(ctx, cache.GenerationsKey(userID))
	publish(ctx, s.events, s.logger, events.New(events.GenerationDeleted, userID, id))
	s.logger.Info("generation deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}

// Download is an image ready to be streamed to the browser as an attachment.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Download opens the image of one generation. Relative URLs are read from the
// bundled assets, absolute http(s) URLs are fetched.
func (s *GenerationService) Download(ctx context.Context, userID, id string) (*Download, error) {
	gen, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	body, contentType, err := s.openImage(ctx, gen.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("service/generation: opening image for %s: %w", id, err)
	}

	return &Download{
		Body:        body,
		ContentType: contentType,
		Filename:    DownloadFilename(gen.Prompt),
	}, nil
}

func (s *GenerationService) openImage(ctx context.Context, imageURL string) (io.ReadCloser, string, error) {
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, "", err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, "", apperror.Upstream(fmt.Sprintf("fetching image: status %d", resp.StatusCode))
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		return resp.Body, contentType, nil
	}

	if s.assets == nil {
		return nil, "", errors.New("no local assets configured")
	}
	name := strings.TrimPrefix(path.Clean("/"+imageURL), "/")
	f, err := s.assets.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperror.NotFound("image", imageURL)
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

// DownloadFilename builds "creo-<prompt prefix>.png", keeping ASCII letters
// and digits from the first 20 characters and replacing the rest with '-'.
func DownloadFilename(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > downloadNameRunes {
		runes = runes[:downloadNameRunes]
	}
	for i, r := range runes {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			runes[i] = '-'
		}
	}
	return "creo-" + string(runes) + ".png"
}

// upstream keeps domain errors as they are and tags anything else as a
// failure of the image backend, preserving its message for the user.
func upstream(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Upstream(err.Error())
}
