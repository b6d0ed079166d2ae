package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mongorepo "github.com/meetscribe/meetscribe/internal/repositories/mongo"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// JobHandler exposes the scheduler's ledger so clients can poll the job ids
// returned by upload and reprocess.
type JobHandler struct {
	jobs mongorepo.JobRepository
}

func NewJobHandler(jobs mongorepo.JobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) Get(c *gin.Context) {
	const op = "JobHandler.Get"

	if _, ok := requireUserID(c); !ok {
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, op, "job not found", err))
		return
	}
	c.JSON(http.StatusOK, job)
}
