package models

import "time"

const (
	ScanStatusPending = "pending"
	ScanStatusDone    = "done"
	ScanStatusFailed  = "failed"
)

// WorldRecordScan is a durable request to search for new records on a stage.
// It is written in the same transaction as the admin approval that triggered
// it, so a scan can never be lost even if the worker is down at commit time.
type WorldRecordScan struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	StageContextID string    `json:"stage_context_id" gorm:"not null;index"`
	FromDate       time.Time `json:"from_date" gorm:"not null"`
	CostumeIDs     string    `json:"costume_ids" gorm:"type:text"` // JSON array, ascending order

	Status      string     `json:"status" gorm:"not null;index;default:'pending'"`
	ScheduledAt time.Time  `json:"scheduled_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`

	Timestamps
}

const (
	RecordKindStage       = "stage"             // best score on the stage, any costume
	RecordKindCostume     = "character_costume" // best score using one costume
	RecordKindCombination = "combination"       // best score for an exact costume line-up
)

// WorldRecord marks a score as the best of its kind on a stage context.
// EndDate is nil while the record stands; a superseding record end-dates it.
type WorldRecord struct {
	ID             string `json:"id" gorm:"primaryKey"`
	StageContextID string `json:"stage_context_id" gorm:"not null;index"`
	ScoreID        string `json:"score_id" gorm:"not null;index"`
	Kind           string `json:"kind" gorm:"not null;type:varchar(24)"`

	// CostumeID is set for character_costume records; CostumeIDs (JSON,
	// ascending) for combination records.
	CostumeID  string `json:"costume_id,omitempty" gorm:"index"`
	CostumeIDs string `json:"costume_ids,omitempty" gorm:"type:text"`

	FromDate time.Time  `json:"from_date" gorm:"not null"`
	EndDate  *time.Time `json:"end_date,omitempty"`

	Score Score `json:"score,omitempty" gorm:"foreignKey:ScoreID"`

	Timestamps
}
