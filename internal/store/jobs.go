package store

import (
	"context"

	"gorm.io/gorm"

	"shopledger/pkg/models"
)

func orderedParts(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// GetJob returns the job with its parts in line order.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.conn(ctx).Preload("Parts", orderedParts).First(&job, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// ListJobs returns every job with parts, oldest first.
func (s *Store) ListJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	err := s.conn(ctx).Preload("Parts", orderedParts).Order("created_at, id").Find(&jobs).Error
	return jobs, err
}

// CreateJob inserts the job and its parts.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	for i := range job.Parts {
		job.Parts[i].JobID = job.ID
		job.Parts[i].Position = i
	}
	return s.conn(ctx).Create(job).Error
}

// SaveJob updates the job row and replaces its parts with job.Parts.
func (s *Store) SaveJob(ctx context.Context, job *models.Job) error {
	db := s.conn(ctx)
	if err := db.Omit("Parts").Save(job).Error; err != nil {
		return err
	}
	if err := db.Where("job_id = ?", job.ID).Delete(&models.Part{}).Error; err != nil {
		return err
	}
	if len(job.Parts) == 0 {
		return nil
	}
	for i := range job.Parts {
		job.Parts[i].JobID = job.ID
		job.Parts[i].Position = i
	}
	return db.Create(&job.Parts).Error
}

// DeleteJob removes the job row and its parts.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	db := s.conn(ctx)
	if err := db.Where("job_id = ?", id).Delete(&models.Part{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Job{}, "id = ?", id).Error
}

func (s *Store) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	return s.conn(ctx).Create(reminder).Error
}

func (s *Store) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return s.conn(ctx).Create(attachment).Error
}

// DeleteRemindersForJob returns how many reminders were removed.
func (s *Store) DeleteRemindersForJob(ctx context.Context, jobID string) (int64, error) {
	res := s.conn(ctx).Where("job_id = ?", jobID).Delete(&models.Reminder{})
	return res.RowsAffected, res.Error
}

// DeleteAttachmentsForJob returns how many attachments were removed.
func (s *Store) DeleteAttachmentsForJob(ctx context.Context, jobID string) (int64, error) {
	res := s.conn(ctx).Where("job_id = ?", jobID).Delete(&models.Attachment{})
	return res.RowsAffected, res.Error
}
