package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/session"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

type stubEditService struct {
	result editing.EditedImage
	err    error
}

func (s *stubEditService) Edit(ctx context.Context, data []byte, mediaType, p string) (editing.EditedImage, error) {
	return s.result, s.err
}

type stubTagService struct {
	tags string
	err  error
}

func (s *stubTagService) Tag(ctx context.Context, data []byte, mediaType, systemPrompt string) (string, error) {
	return s.tags, s.err
}

func newEditRouter(t *testing.T, edit editing.EditService, tagSvc editing.TagService) (*chi.Mux, *queue.Store) {
	t.Helper()
	logger := discardLogger()
	st := queue.NewStore(nil, logger)
	tagger := tagging.NewAdapter(tagSvc, logger)
	sessions := session.NewManager(st, edit, tagger, logger)
	h := NewEditHandler(sessions, tagger, st, logger)

	r := chi.NewRouter()
	r.Post("/api/images/{id}/edit", h.Edit)
	r.Post("/api/images/tag", h.Tag)
	return r, st
}

func TestInteractiveEditEndpoint(t *testing.T) {
	t.Parallel()
	edit := &stubEditService{result: editing.EditedImage{Data: []byte{9}, MediaType: "image/png"}}
	router, st := newEditRouter(t, edit, &stubTagService{})

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	w := doJSON(t, router, http.MethodPost, "/api/images/"+rec.ID.String()+"/edit",
		EditImageRequest{Prompt: "make it blue"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.NotEmpty(t, resp.EditedDataURL)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "make it blue", resp.History[0].Prompt)
}

func TestInteractiveEditValidation(t *testing.T) {
	t.Parallel()
	router, st := newEditRouter(t, &stubEditService{}, &stubTagService{})

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	// Empty prompt.
	w := doJSON(t, router, http.MethodPost, "/api/images/"+rec.ID.String()+"/edit", EditImageRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown record.
	w = doJSON(t, router, http.MethodPost, "/api/images/11111111-2222-3333-4444-555555555555/edit",
		EditImageRequest{Prompt: "p"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad ID.
	w = doJSON(t, router, http.MethodPost, "/api/images/nope/edit", EditImageRequest{Prompt: "p"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkTagEndpoint(t *testing.T) {
	t.Parallel()
	router, st := newEditRouter(t, &stubEditService{}, &stubTagService{tags: "cat, sitting"})

	blank, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	prompted, err := domain.NewImageRecord([]byte{2}, "image/png")
	require.NoError(t, err)
	prompted.Prompt = "keep me"
	st.Enqueue(blank, prompted)

	// Default: all queued records, skipping those with prompts.
	w := doJSON(t, router, http.MethodPost, "/api/images/tag", TagImagesRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	got, err := st.Get(blank.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat, sitting", got.Prompt)

	// Explicit IDs with overwrite re-tags prompted records too.
	w = doJSON(t, router, http.MethodPost, "/api/images/tag", TagImagesRequest{
		IDs:       []string{prompted.ID.String()},
		Overwrite: true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	got, err = st.Get(prompted.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me, cat, sitting", got.Prompt)
}
