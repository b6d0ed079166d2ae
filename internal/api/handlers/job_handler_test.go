package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/utils"
)

type fakeJobRepo struct {
	jobs map[string]*models.JobRecord
}

func (r *fakeJobRepo) Insert(_ context.Context, j *models.JobRecord) error {
	r.jobs[j.JobID] = j
	return nil
}

func (r *fakeJobRepo) Get(_ context.Context, jobID string) (*models.JobRecord, error) {
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) MarkRunning(context.Context, string) error            { return nil }
func (r *fakeJobRepo) MarkFinished(context.Context, string, string, string) error { return nil }
func (r *fakeJobRepo) MarkQueuedIfBlocked(context.Context, string) (bool, error) {
	return false, nil
}
func (r *fakeJobRepo) ListBlockedDependents(context.Context, string) ([]models.JobRecord, error) {
	return nil, nil
}
func (r *fakeJobRepo) CountNonTerminal(context.Context, []string) (int64, error) { return 0, nil }

func jobTestRouter(repo *fakeJobRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewJobHandler(repo)
	r := gin.New()
	r.GET("/jobs/:job_id", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		h.Get(c)
	})
	return r
}

func TestJobGetReturnsLedgerStatus(t *testing.T) {
	repo := &fakeJobRepo{jobs: map[string]*models.JobRecord{}}
	_ = repo.Insert(context.Background(), &models.JobRecord{
		JobID:  "job-1",
		Task:   "transcribe",
		Status: models.JobSucceeded,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
	jobTestRouter(repo).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var out models.JobRecord
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("body is not a job record: %v", err)
	}
	if out.JobID != "job-1" || out.Status != models.JobSucceeded {
		t.Errorf("got job %q status %q, want job-1 succeeded", out.JobID, out.Status)
	}
}

func TestJobGetUnknownID(t *testing.T) {
	repo := &fakeJobRepo{jobs: map[string]*models.JobRecord{}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/nope", nil)
	jobTestRouter(repo).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var out APIError
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("body is not an api error: %v", err)
	}
	if out.Code != utils.CodeNotFound {
		t.Errorf("code = %q, want %q", out.Code, utils.CodeNotFound)
	}
}
