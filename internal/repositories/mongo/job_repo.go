package mongo

import (
	"context"
	"time"

	"github.com/meetscribe/meetscribe/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// JobRepository is the scheduler's bookkeeping ledger. The join barrier
// reads terminal states from here, never from worker memory.
type JobRepository interface {
	Insert(ctx context.Context, j *models.JobRecord) error
	Get(ctx context.Context, jobID string) (*models.JobRecord, error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkFinished(ctx context.Context, jobID, status, lastError string) error
	// MarkQueuedIfBlocked flips a blocked job to queued and reports whether
	// this call won the flip. Exactly one dependency-completion path wins,
	// so a released join job is enqueued once.
	MarkQueuedIfBlocked(ctx context.Context, jobID string) (bool, error)
	ListBlockedDependents(ctx context.Context, jobID string) ([]models.JobRecord, error)
	CountNonTerminal(ctx context.Context, jobIDs []string) (int64, error)
}

type jobRepo struct {
	col *mongo.Collection
}

func NewJobRepo(db *mongo.Database) JobRepository {
	return &jobRepo{col: db.Collection("pipeline_jobs")}
}

func (r *jobRepo) Insert(ctx context.Context, j *models.JobRecord) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, j)
	return err
}

func (r *jobRepo) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	var out models.JobRecord
	err := r.col.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *jobRepo) MarkRunning(ctx context.Context, jobID string) error {
	now := time.Now().UTC()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"job_id": jobID},
		bson.M{"$set": bson.M{"status": models.JobRunning, "started_at": now}},
	)
	return err
}

func (r *jobRepo) MarkFinished(ctx context.Context, jobID, status, lastError string) error {
	now := time.Now().UTC()
	set := bson.M{"status": status, "finished_at": now}
	if lastError != "" {
		set["last_error"] = lastError
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"job_id": jobID}, bson.M{"$set": set})
	return err
}

func (r *jobRepo) MarkQueuedIfBlocked(ctx context.Context, jobID string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"job_id": jobID, "status": models.JobBlocked},
		bson.M{"$set": bson.M{"status": models.JobQueued}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *jobRepo) ListBlockedDependents(ctx context.Context, jobID string) ([]models.JobRecord, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"status":     models.JobBlocked,
		"depends_on": jobID,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.JobRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) CountNonTerminal(ctx context.Context, jobIDs []string) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	return r.col.CountDocuments(ctx, bson.M{
		"job_id": bson.M{"$in": jobIDs},
		"status": bson.M{"$nin": bson.A{models.JobSucceeded, models.JobFailed}},
	})
}
