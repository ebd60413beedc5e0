package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/batch"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/events"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prefs"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/store"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

func newBatchRouter(t *testing.T, edit editing.EditService) (*chi.Mux, *queue.Store, *batch.Scheduler) {
	t.Helper()
	logger := discardLogger()
	emitter := events.NewInMemoryEmitter(logger)
	st := queue.NewStore(emitter, logger)
	prefsSvc, err := prefs.NewService(store.NewMemoryKV(), "", logger)
	require.NoError(t, err)
	tagger := tagging.NewAdapter(&stubTagService{}, logger)

	scheduler := batch.NewScheduler(st, edit, tagger, prefsSvc, batch.Config{Cooldown: time.Second}, logger)
	emitter.RegisterHandler(scheduler)
	t.Cleanup(scheduler.Close)

	h := NewBatchHandler(scheduler, prefsSvc, logger)
	r := chi.NewRouter()
	r.Post("/api/batch/start", h.Start)
	r.Post("/api/batch/cancel", h.Cancel)
	r.Get("/api/batch/status", h.Status)
	return r, st, scheduler
}

func TestBatchLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	edit := &stubEditService{result: editing.EditedImage{Data: []byte{9}, MediaType: "image/png"}}
	router, st, scheduler := newBatchRouter(t, edit)

	// Start with nothing queued.
	w := doJSON(t, router, http.MethodPost, "/api/batch/start", StartBatchRequest{GlobalPrompt: "g"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	w = doJSON(t, router, http.MethodPost, "/api/batch/start", StartBatchRequest{GlobalPrompt: "g"})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return scheduler.State() == batch.StateIdle
	}, 5*time.Second, 5*time.Millisecond)

	w = doJSON(t, router, http.MethodGet, "/api/batch/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "idle", status.State)
	assert.Equal(t, 1, status.Completed)
	assert.Equal(t, 1, status.ProcessedToday)
}

func TestBatchCancelWhenIdle(t *testing.T) {
	t.Parallel()

	router, _, _ := newBatchRouter(t, &stubEditService{})
	w := doJSON(t, router, http.MethodPost, "/api/batch/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBatchStartRejectsBadCategory(t *testing.T) {
	t.Parallel()

	router, st, _ := newBatchRouter(t, &stubEditService{})
	rec, err := domain.NewImageRecord([]byte{1}, "image/png")
	require.NoError(t, err)
	st.Enqueue(rec)

	w := doJSON(t, router, http.MethodPost, "/api/batch/start", StartBatchRequest{
		GlobalPrompt: "g",
		Randomize:    true,
		Categories:   []string{"no-such"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
