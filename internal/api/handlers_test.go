package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/archive"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prefs"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pngDataURL builds a real 1x1 PNG so decode validation passes.
func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return domain.EncodeDataURL(buf.Bytes(), "image/png")
}

func newImageRouter(t *testing.T) (*chi.Mux, *queue.Store) {
	t.Helper()
	logger := discardLogger()
	st := queue.NewStore(nil, logger)
	h := NewImageHandler(st, archive.NewPacker(logger), prompt.NewRandomizer(), logger)

	r := chi.NewRouter()
	r.Post("/api/images", h.Enqueue)
	r.Get("/api/images", h.List)
	r.Delete("/api/images", h.Clear)
	r.Get("/api/images/archive", h.Archive)
	r.Post("/api/images/retry-failed", h.RetryFailed)
	r.Post("/api/images/randomize", h.Randomize)
	r.Delete("/api/images/{id}", h.Delete)
	r.Post("/api/images/{id}/promote", h.Promote)
	r.Post("/api/images/{id}/randomize", h.RandomizeOne)
	return r, st
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEnqueueAndList(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/images", EnqueueRequest{
		Images: []EnqueueImage{{DataURL: pngDataURL(t), Prompt: "red hair"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created []ImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created, 1)
	assert.Equal(t, "queued", created[0].Status)
	assert.Equal(t, "red hair", created[0].Prompt)

	w = doJSON(t, router, http.MethodGet, "/api/images", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []ImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
	assert.Equal(t, 1, st.Counts().Queued)
}

func TestEnqueueRejectsUndecodableImage(t *testing.T) {
	t.Parallel()
	router, _ := newImageRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/images", EnqueueRequest{
		Images: []EnqueueImage{{DataURL: "data:image/png;base64,aGk="}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnqueueRejectsMalformedDataURL(t *testing.T) {
	t.Parallel()
	router, _ := newImageRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/images", EnqueueRequest{
		Images: []EnqueueImage{{DataURL: "not a data url"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/images", EnqueueRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteImage(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	w := doJSON(t, router, http.MethodDelete, "/api/images/"+rec.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/images/"+rec.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/images/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearScopes(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	a, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	b, err := domain.NewImageRecord([]byte{2}, "image/png")
	require.NoError(t, err)
	st.Enqueue(a, b)
	_, err = st.SetStatus(a.ID, domain.StatusCompleted, nil)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodDelete, "/api/images?scope=queued", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	w = doJSON(t, router, http.MethodDelete, "/api/images?scope=all", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/images?scope=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPromoteEndpoint(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	// Not promotable yet.
	w := doJSON(t, router, http.MethodPost, "/api/images/"+rec.ID.String()+"/promote", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	edited := domain.EncodeDataURL([]byte{9}, "image/png")
	_, err = st.SetStatus(rec.ID, domain.StatusCompleted, &queue.StatusPatch{EditedDataURL: &edited})
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodPost, "/api/images/"+rec.ID.String()+"/promote", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, edited, resp.OriginalDataURL)
	assert.Empty(t, resp.EditedDataURL)
}

func TestRandomizeEndpoint(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	rec.Prompt = "solo"
	st.Enqueue(rec)

	w := doJSON(t, router, http.MethodPost, "/api/images/randomize", RandomizeRequest{
		Categories: []string{"angle"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := st.Get(rec.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Prompt, "solo")
	assert.Greater(t, len(got.Prompt), len("solo"), "a fragment should have been merged in")

	w = doJSON(t, router, http.MethodPost, "/api/images/randomize", RandomizeRequest{
		Categories: []string{"no-such"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRandomizeOneEndpoint(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	target, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	target.Prompt = "solo"
	st.Enqueue(target)

	other, err := domain.NewImageRecord([]byte{2}, "image/png")
	require.NoError(t, err)
	other.Prompt = "untouched"
	st.Enqueue(other)

	w := doJSON(t, router, http.MethodPost, "/api/images/"+target.ID.String()+"/randomize", RandomizeRequest{
		Categories: []string{"pose"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Prompt, "solo")
	assert.Greater(t, len(resp.Prompt), len("solo"), "a fragment should have been merged in")

	got, err := st.Get(other.ID)
	require.NoError(t, err)
	assert.Equal(t, "untouched", got.Prompt)

	// Non-queued records are rejected.
	_, err = st.SetStatus(target.ID, domain.StatusError, nil)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodPost, "/api/images/"+target.ID.String()+"/randomize", RandomizeRequest{
		Categories: []string{"pose"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/images/"+uuid.NewString()+"/randomize", RandomizeRequest{
		Categories: []string{"pose"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveEndpoint(t *testing.T) {
	t.Parallel()
	router, st := newImageRouter(t)

	// Nothing completed yet.
	w := doJSON(t, router, http.MethodGet, "/api/images/archive", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)
	edited := domain.EncodeDataURL([]byte{9, 9}, "image/png")
	_, err = st.SetStatus(rec.ID, domain.StatusCompleted, &queue.StatusPatch{EditedDataURL: &edited})
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodGet, "/api/images/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

type stubEnhancer struct {
	result string
	err    error
}

func (s *stubEnhancer) Enhance(ctx context.Context, p string) (string, error) {
	return s.result, s.err
}

func newPromptRouter(t *testing.T, enhancer editing.EnhanceService) *chi.Mux {
	t.Helper()
	logger := discardLogger()
	prefsSvc, err := prefs.NewService(store.NewMemoryKV(), "", logger)
	require.NoError(t, err)
	h := NewPromptHandler(enhancer, prefsSvc, logger)

	r := chi.NewRouter()
	r.Post("/api/prompts/enhance", h.Enhance)
	r.Get("/api/prompts/suggestions", h.Suggestions)
	r.Get("/api/prompts/history", h.History)
	r.Post("/api/prompts/history", h.AddToHistory)
	r.Delete("/api/prompts/history", h.DeleteFromHistory)
	r.Get("/api/prompts/pins", h.Pins)
	r.Post("/api/prompts/pins", h.Pin)
	r.Delete("/api/prompts/pins", h.Unpin)
	return r
}

func TestEnhanceEndpoint(t *testing.T) {
	t.Parallel()
	router := newPromptRouter(t, &stubEnhancer{result: "a vivid watercolor rendition"})

	w := doJSON(t, router, http.MethodPost, "/api/prompts/enhance", PromptRequest{Prompt: "watercolor"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp EnhanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a vivid watercolor rendition", resp.Prompt)

	w = doJSON(t, router, http.MethodPost, "/api/prompts/enhance", PromptRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnhanceRateLimited(t *testing.T) {
	t.Parallel()
	router := newPromptRouter(t, &stubEnhancer{err: editing.ErrRateLimited})

	w := doJSON(t, router, http.MethodPost, "/api/prompts/enhance", PromptRequest{Prompt: "p"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPinLifecycleEndpoints(t *testing.T) {
	t.Parallel()
	router := newPromptRouter(t, &stubEnhancer{})

	w := doJSON(t, router, http.MethodPost, "/api/prompts/pins", PromptRequest{Prompt: "keeper"})
	require.Equal(t, http.StatusOK, w.Code)

	var pins PromptListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pins))
	assert.Equal(t, []string{"keeper"}, pins.Prompts)

	w = doJSON(t, router, http.MethodDelete, "/api/prompts/pins", PromptRequest{Prompt: "keeper"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pins))
	assert.Empty(t, pins.Prompts)
}

func TestHistoryEndpoints(t *testing.T) {
	t.Parallel()
	router := newPromptRouter(t, &stubEnhancer{})

	w := doJSON(t, router, http.MethodPost, "/api/prompts/history", PromptRequest{Prompt: "older"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/prompts/history", PromptRequest{Prompt: "newer"})
	require.Equal(t, http.StatusOK, w.Code)

	var history PromptListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, []string{"newer", "older"}, history.Prompts)

	w = doJSON(t, router, http.MethodDelete, "/api/prompts/history", PromptRequest{Prompt: "older"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, []string{"newer"}, history.Prompts)

	w = doJSON(t, router, http.MethodPost, "/api/prompts/history", PromptRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestionsEndpoint(t *testing.T) {
	t.Parallel()
	router := newPromptRouter(t, &stubEnhancer{})

	w := doJSON(t, router, http.MethodGet, "/api/prompts/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var catalog map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Len(t, catalog, len(prompt.Categories()))
	assert.NotEmpty(t, catalog["angle"])
}
