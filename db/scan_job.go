package db

import (
	"time"

	"gorm.io/datatypes"
)

// ScanJobStatus mirrors pkg/graphqlaudit.ScanStatus as a persisted
// small-string enum, following the same idiom as the teacher's
// severity type in severity.go.
type ScanJobStatus string

const (
	ScanJobStatusQueued    ScanJobStatus = "Queued"
	ScanJobStatusRunning   ScanJobStatus = "Running"
	ScanJobStatusCompleted ScanJobStatus = "Completed"
	ScanJobStatusFailed    ScanJobStatus = "Failed"
)

// ScanJob is the single persisted row the job/queue façade writes per
// scan, per spec.md §6: (id, target_url, status, findings JSON,
// completed_at). The core engine never constructs or reads a ScanJob;
// it only ever returns a ScanResult, which the façade serializes here.
type ScanJob struct {
	BaseModel
	TargetURL   string         `gorm:"index" json:"target_url"`
	Status      ScanJobStatus  `gorm:"index;type:varchar(32);default:'Queued'" json:"status"`
	Findings    datatypes.JSON `json:"findings"`
	Error       string         `json:"error,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// CreateScanJob inserts the initial Queued row for a newly accepted scan.
func (d *DatabaseConnection) CreateScanJob(targetURL string) (*ScanJob, error) {
	job := &ScanJob{
		TargetURL: targetURL,
		Status:    ScanJobStatusQueued,
	}
	if err := d.db.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateScanJob seals the row with the final status, findings and timing.
func (d *DatabaseConnection) UpdateScanJob(id uint, status ScanJobStatus, findings datatypes.JSON, scanErr string, startedAt, completedAt time.Time) error {
	return d.db.Model(&ScanJob{}).Where("id = ?", id).Updates(map[string]any{
		"status":       status,
		"findings":     findings,
		"error":        scanErr,
		"started_at":   startedAt,
		"completed_at": completedAt,
	}).Error
}

// GetScanJob fetches a single job by id.
func (d *DatabaseConnection) GetScanJob(id uint) (*ScanJob, error) {
	var job ScanJob
	if err := d.db.First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}
