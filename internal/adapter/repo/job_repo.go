package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
	"sceneforge/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new job record in the processing state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OwnerID,
		job.SourceImageID,
		job.SceneID,
		job.SceneType,
		job.SceneName,
		job.UserPrompt,
		job.Model,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetForOwner fetches a job owned by ownerID.
func (r *JobRepositoryPG) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.Job, error) {
	if !validUUID(jobID) {
		return nil, domain.ErrNotFound
	}
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobForOwner, jobID, ownerID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.SourceImageID,
		&job.SceneID,
		&job.SceneType,
		&job.SceneName,
		&job.UserPrompt,
		&job.Model,
		&job.Status,
		&job.ResultPayload,
		&job.ErrorMessage,
		&job.ProcessTimeMS,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Complete stores the result payload and moves a processing job to completed.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, payload []byte, processTimeMS int64) error {
	if len(payload) == 0 {
		return fmt.Errorf("complete job %s: empty payload", jobID)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QCompleteJob, jobID, payload, processTimeMS)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete job %s: %w", jobID, domain.ErrInvalidTransition)
	}
	return nil
}

// Fail records errMsg and moves a processing job to failed.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID, errMsg string) error {
	if errMsg == "" {
		errMsg = "unknown error"
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QFailJob, jobID, errMsg)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail job %s: %w", jobID, domain.ErrInvalidTransition)
	}
	return nil
}

// SoftDelete moves a completed or failed job to deleted.
func (r *JobRepositoryPG) SoftDelete(ctx context.Context, jobID, ownerID string) error {
	if !validUUID(jobID) {
		return domain.ErrNotFound
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QSoftDeleteJob, jobID, ownerID)
	if err != nil {
		return fmt.Errorf("soft delete job: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return r.transitionError(ctx, jobID, ownerID)
}

// Restore moves a deleted job back to its terminal status and returns it.
func (r *JobRepositoryPG) Restore(ctx context.Context, jobID, ownerID string) (domain.JobStatus, error) {
	if !validUUID(jobID) {
		return "", domain.ErrNotFound
	}
	var status domain.JobStatus
	if err := r.sql.QueryRow(ctx, sqlinline.QRestoreJob, jobID, ownerID).Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return "", r.transitionError(ctx, jobID, ownerID)
		}
		return "", fmt.Errorf("restore job: %w", err)
	}
	return status, nil
}

// ListByOwner pages through the owner's jobs, either the trash or everything else.
func (r *JobRepositoryPG) ListByOwner(ctx context.Context, ownerID string, deleted bool, page domain.Page) ([]domain.JobSummary, int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByOwner, ownerID, deleted, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.JobSummary
		total int
	)
	for rows.Next() {
		var s domain.JobSummary
		if err := rows.Scan(
			&s.ID,
			&s.SceneID,
			&s.SceneType,
			&s.SceneName,
			&s.Status,
			&s.ImageCount,
			&s.ProcessTimeMS,
			&s.ErrorMessage,
			&s.CreatedAt,
			&s.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FailStale fails every job that has been processing for longer than olderThan and returns their ids.
func (r *JobRepositoryPG) FailStale(ctx context.Context, olderThan time.Duration, errMsg string) ([]string, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QFailStaleJobs, olderThan.Seconds(), errMsg)
	if err != nil {
		return nil, fmt.Errorf("fail stale jobs: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("fail stale jobs: %w", err)
	}
	return ids, nil
}

func (r *JobRepositoryPG) transitionError(ctx context.Context, jobID, ownerID string) error {
	var status domain.JobStatus
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectJobStatusForOwner, jobID, ownerID).Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("job is %s: %w", status, domain.ErrInvalidTransition)
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
