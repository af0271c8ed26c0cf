package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/model"
)

type generationFixture struct {
	svc   *GenerationService
	store *fakeStore
	cache *mapCache
	pub   *recordingPublisher
	gen   *stubGenerator
}

func newGenerationFixture() *generationFixture {
	f := &generationFixture{
		store: newFakeStore(),
		cache: newMapCache(),
		pub:   &recordingPublisher{},
		gen:   &stubGenerator{},
	}
	assets := fstest.MapFS{
		"placeholder.png": {Data: []byte("\x89PNG fake")},
	}
	f.svc = NewGenerationService(f.store, f.gen, f.cache, f.pub, assets, discardLogger())
	return f
}

func TestPreview(t *testing.T) {
	f := newGenerationFixture()

	res, err := f.svc.Preview(context.Background(), "a red fox")
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if res.ImageURL == "" {
		t.Error("expected a non-empty image URL")
	}
	if len(f.store.generations) != 0 {
		t.Error("Preview() must not save anything")
	}

	if _, err := f.svc.Preview(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty prompt error = %v, want ErrValidation", err)
	}
}

func TestGenerate_SavesOneRowPerCall(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()

	g1, err := f.svc.Generate(ctx, "user-1", "  a red fox  ")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if g1.Prompt != "a red fox" {
		t.Errorf("Prompt = %q, want trimmed", g1.Prompt)
	}
	if g1.ImageURL != "/placeholder.png" || g1.Description != "about a red fox" {
		t.Errorf("unexpected generation %+v", g1)
	}

	g2, err := f.svc.Generate(ctx, "user-1", "a red fox")
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if g1.ID == g2.ID {
		t.Error("identical prompts must still produce distinct rows")
	}
	if got := f.pub.types(); len(got) != 2 || got[0] != events.GenerationCreated {
		t.Errorf("events = %v", got)
	}
}

func TestGenerate_Validation(t *testing.T) {
	f := newGenerationFixture()

	for _, prompt := range []string{"", "   ", strings.Repeat("a", MaxPromptLength+1)} {
		_, err := f.svc.Generate(context.Background(), "user-1", prompt)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Generate(%d chars) error = %v, want ErrValidation", len(prompt), err)
		}
	}
	if f.gen.calls != 0 {
		t.Errorf("generator called %d times for invalid prompts", f.gen.calls)
	}
}

func TestGenerate_GeneratorError(t *testing.T) {
	f := newGenerationFixture()
	f.gen.err = errors.New("OpenAI API error")

	_, err := f.svc.Generate(context.Background(), "user-1", "fox")
	if err == nil || !strings.Contains(err.Error(), "OpenAI API error") {
		t.Fatalf("error = %v, want the generator's reason", err)
	}
	if len(f.store.generations) != 0 {
		t.Error("nothing must be saved when generation fails")
	}
}

func TestList_NewestFirstAndCached(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()

	first, _ := f.svc.Generate(ctx, "user-1", "first")
	second, _ := f.svc.Generate(ctx, "user-1", "second")
	f.svc.Generate(ctx, "user-2", "someone else's")

	gens, err := f.svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gens) != 2 || gens[0].ID != second.ID || gens[1].ID != first.ID {
		t.Fatalf("List() = %+v", gens)
	}

	if _, err := f.svc.List(ctx, "user-1"); err != nil {
		t.Fatalf("second List() error = %v", err)
	}
	if f.store.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (second read served from cache)", f.store.listCalls)
	}
	if _, ok := f.cache.Get(ctx, cache.GenerationsKey("user-1")); !ok {
		t.Error("expected list to be cached")
	}
}

func TestDelete_RemovesExactlyThatIDAndInvalidates(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()

	keep, _ := f.svc.Generate(ctx, "user-1", "keep")
	gone, _ := f.svc.Generate(ctx, "user-1", "gone")
	if _, err := f.svc.List(ctx, "user-1"); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if err := f.svc.Delete(ctx, "user-1", gone.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	gens, err := f.svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(gens) != 1 || gens[0].ID != keep.ID {
		t.Errorf("after delete List() = %+v, want only %q", gens, keep.ID)
	}
}

func TestDelete_NotOwned(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()
	g, _ := f.svc.Generate(ctx, "user-1", "mine")

	if err := f.svc.Delete(ctx, "user-2", g.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := f.svc.Delete(ctx, "user-1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty id error = %v, want ErrValidation", err)
	}
}

func TestList_ConcurrentCallersShareOneLoad(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()
	f.svc.Generate(ctx, "user-1", "fox")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gens, err := f.svc.List(ctx, "user-1")
			if err == nil && len(gens) != 1 {
				err = errors.New("wrong list length")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}
}

func TestList_StorageError(t *testing.T) {
	f := newGenerationFixture()
	f.store.listErr = errors.New("connection refused")

	if _, err := f.svc.List(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDownload_LocalAsset(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()
	g, _ := f.svc.Generate(ctx, "user-1", "A red fox, at dawn!")

	dl, err := f.svc.Download(ctx, "user-1", g.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer dl.Body.Close()

	body, _ := io.ReadAll(dl.Body)
	if string(body) != "\x89PNG fake" {
		t.Errorf("body = %q", body)
	}
	if dl.ContentType != "image/png" {
		t.Errorf("ContentType = %q", dl.ContentType)
	}
	if dl.Filename != "creo-A-red-fox--at-dawn-.png" {
		t.Errorf("Filename = %q", dl.Filename)
	}
}

func TestDownload_RemoteImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	f := newGenerationFixture()
	ctx := context.Background()
	f.store.generations = append(f.store.generations, model.Generation{
		ID: "remote", UserID: "user-1", Prompt: "x", ImageURL: srv.URL + "/img.jpg",
	})

	dl, err := f.svc.Download(ctx, "user-1", "remote")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer dl.Body.Close()

	body, _ := io.ReadAll(dl.Body)
	if string(body) != "jpeg bytes" || dl.ContentType != "image/jpeg" {
		t.Errorf("got %q (%s)", body, dl.ContentType)
	}
}

func TestDownload_Errors(t *testing.T) {
	f := newGenerationFixture()
	ctx := context.Background()
	f.store.generations = append(f.store.generations, model.Generation{
		ID: "missing-asset", UserID: "user-1", Prompt: "x", ImageURL: "/nope.png",
	})

	if _, err := f.svc.Download(ctx, "user-2", "missing-asset"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("foreign download error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Download(ctx, "user-1", "missing-asset"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing asset error = %v, want ErrNotFound", err)
	}
}

func TestDownloadFilename(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"fox", "creo-fox.png"},
		{"a red fox", "creo-a-red-fox.png"},
		{"exactly twenty chars", "creo-exactly-twenty-chars.png"},
		{"this prompt is longer than twenty", "creo-this-prompt-is-longe.png"},
		{"café ☕", "creo-caf---.png"},
		{"", "creo-.png"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			if got := DownloadFilename(tt.prompt); got != tt.want {
				t.Errorf("DownloadFilename(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}
