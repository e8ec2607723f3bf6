package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/storage"
)

func newIngestRouter(t *testing.T) (*gin.Engine, *storage.DB, *rag.HybridSearcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.NewWithWriter("error", io.Discard)
	index := rag.NewBM25Index(log)
	require.NoError(t, index.Initialize(nil))
	searcher := rag.NewHybridSearcher(nil, index, log)

	router := gin.New()
	router.POST("/api/v1/notices", ingestNoticeHandler(db, searcher, log))
	router.POST("/api/v1/materials", ingestMaterialHandler(db, searcher, log))
	return router, db, searcher
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestIngestNoticeSearchableWithoutRestart(t *testing.T) {
	router, db, searcher := newIngestRouter(t)
	ctx := context.Background()

	w := postJSON(router, "/api/v1/notices",
		`{"title":"CT-2 rescheduled","message":"The CSE-2100 class test moves to Sunday","dept":"CSE","series":"21","section":"B"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	scope := storage.Scope{Dept: "CSE", Series: "21", Section: "B"}
	rows, err := db.ListNotices(ctx, scope)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// The keyword tier picks it up immediately, not on the next boot.
	hits, err := searcher.Search(ctx, "class test rescheduled", scope, 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, rows[0].ID, hits[0].ID)
}

func TestIngestNoticeRejectsIncompleteBody(t *testing.T) {
	router, _, _ := newIngestRouter(t)

	w := postJSON(router, "/api/v1/notices", `{"title":"No message or scope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestMaterialPersists(t *testing.T) {
	router, db, _ := newIngestRouter(t)

	w := postJSON(router, "/api/v1/materials",
		`{"type":"class_note","drive_url":"https://drive.example/dp-notes","course_code":"CSE-1202","dept":"CSE","series":"21","section":"A","written_by":"Rahim"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	rows, err := db.ListMaterials(context.Background(), storage.MaterialClassNote,
		storage.Scope{Dept: "CSE", Series: "21", Section: "A"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://drive.example/dp-notes", rows[0].DriveURL)
}

func TestIngestMaterialRejectsUnknownType(t *testing.T) {
	router, _, _ := newIngestRouter(t)

	w := postJSON(router, "/api/v1/materials",
		`{"type":"quiz_bank","drive_url":"https://drive.example/x","course_code":"CSE-1202","dept":"CSE","series":"21"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
