package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"score-tracking-system/models"
	"score-tracking-system/stores"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorldRecordWorker executes the deferred world-record scans the approval
// engine schedules. The scan rows are durable, so the worker is free to run
// fully decoupled from approvals: a nudge channel wakes it right after a
// commit and a gocron sweep picks up anything missed (crashes, restarts,
// failed scans). All pending scans are processed by one goroutine, so a scan
// is never executed twice concurrently.
type WorldRecordWorker struct {
	db            *gorm.DB
	scores        *stores.ScoreStore
	sweepInterval time.Duration
	nudge         chan struct{}
}

func NewWorldRecordWorker(db *gorm.DB, sweepInterval time.Duration) *WorldRecordWorker {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	return &WorldRecordWorker{
		db:            db,
		scores:        stores.NewScoreStore(db),
		sweepInterval: sweepInterval,
		nudge:         make(chan struct{}, 1),
	}
}

// ScheduleScan wakes the worker after an approval commits. Never blocks and
// never fails the caller; if the channel is already primed the pending row
// is picked up in the same pass anyway.
func (w *WorldRecordWorker) ScheduleScan(_ models.WorldRecordScan) {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

func (w *WorldRecordWorker) Start(ctx context.Context) {
	log.Println("[WR] starting world record scan worker")

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[WR] scheduler init failed, relying on nudges only: %v", err)
	} else {
		_, _ = sched.NewJob(
			gocron.DurationJob(w.sweepInterval),
			gocron.NewTask(func() { w.ScheduleScan(models.WorldRecordScan{}) }),
		)
		sched.Start()
	}

	go func() {
		defer func() {
			if sched != nil {
				_ = sched.Shutdown()
			}
		}()
		// Initial pass covers scans committed while no worker was running.
		w.processPending(ctx)
		for {
			select {
			case <-w.nudge:
				w.processPending(ctx)
			case <-ctx.Done():
				log.Println("[WR] world record scan worker stopped")
				return
			}
		}
	}()
}

func (w *WorldRecordWorker) processPending(ctx context.Context) {
	var scans []models.WorldRecordScan
	err := w.db.
		Where("status = ?", models.ScanStatusPending).
		Order("scheduled_at ASC").
		Find(&scans).Error
	if err != nil {
		log.Printf("[WR] failed to load pending scans: %v", err)
		return
	}
	for _, scan := range scans {
		if ctx.Err() != nil {
			return
		}
		if err := w.processScan(scan); err != nil {
			log.Printf("[WR] scan %s failed: %v", scan.ID, err)
			now := time.Now()
			_ = w.db.Model(&models.WorldRecordScan{}).Where("id = ?", scan.ID).Updates(map[string]interface{}{
				"status":       models.ScanStatusFailed,
				"processed_at": now,
				"last_error":   err.Error(),
			}).Error
			continue
		}
		now := time.Now()
		if err := w.db.Model(&models.WorldRecordScan{}).Where("id = ?", scan.ID).Updates(map[string]interface{}{
			"status":       models.ScanStatusDone,
			"processed_at": now,
			"last_error":   "",
		}).Error; err != nil {
			log.Printf("[WR] failed to mark scan %s done: %v", scan.ID, err)
		}
	}
}

// processScan searches the scan window for new stage, per-costume and
// combination records. The dataset keeps moving underneath (submissions and
// approvals continue); each record check re-reads the current best inside
// its own transaction.
func (w *WorldRecordWorker) processScan(scan models.WorldRecordScan) error {
	var costumeIDs []string
	if scan.CostumeIDs != "" {
		if err := json.Unmarshal([]byte(scan.CostumeIDs), &costumeIDs); err != nil {
			return fmt.Errorf("bad costume id list: %w", err)
		}
	}

	top, err := w.scores.FindTopScore(scan.StageContextID, scan.FromDate)
	if err != nil {
		return err
	}
	if err := w.updateRecord(scan, models.RecordKindStage, "", "", top); err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, costumeID := range costumeIDs {
		if seen[costumeID] {
			continue
		}
		seen[costumeID] = true
		top, err := w.scores.FindTopScoreByCostume(scan.StageContextID, costumeID, scan.FromDate)
		if err != nil {
			return err
		}
		if err := w.updateRecord(scan, models.RecordKindCostume, costumeID, "", top); err != nil {
			return err
		}
	}

	if len(costumeIDs) > 0 {
		top, err := w.scores.FindTopCombinationScore(scan.StageContextID, costumeIDs, scan.FromDate)
		if err != nil {
			return err
		}
		if err := w.updateRecord(scan, models.RecordKindCombination, "", scan.CostumeIDs, top); err != nil {
			return err
		}
	}
	return nil
}

// updateRecord compares the window's best score against the standing record
// of the same kind and, when beaten, end-dates the old record and inserts
// the new one atomically.
func (w *WorldRecordWorker) updateRecord(scan models.WorldRecordScan, kind, costumeID, costumeIDs string, top *models.Score) error {
	if top == nil {
		return nil
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		var current models.WorldRecord
		q := tx.Preload("Score").
			Where("stage_context_id = ? AND kind = ? AND end_date IS NULL", scan.StageContextID, kind)
		if kind == models.RecordKindCostume {
			q = q.Where("costume_id = ?", costumeID)
		}
		if kind == models.RecordKindCombination {
			q = q.Where("costume_ids = ?", costumeIDs)
		}
		err := q.First(&current).Error
		hasCurrent := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if hasCurrent {
			if current.ScoreID == top.ID || current.Score.Value >= top.Value {
				return nil
			}
			now := time.Now()
			if err := tx.Model(&models.WorldRecord{}).Where("id = ?", current.ID).
				Update("end_date", now).Error; err != nil {
				return err
			}
		}

		record := &models.WorldRecord{
			ID:             uuid.NewString(),
			StageContextID: scan.StageContextID,
			ScoreID:        top.ID,
			Kind:           kind,
			CostumeID:      costumeID,
			CostumeIDs:     costumeIDs,
			FromDate:       scan.FromDate,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		log.Printf("[WR] new %s record on stage context %s: score %s (%d)",
			kind, scan.StageContextID, top.ID, top.Value)
		return nil
	})
}

// CurrentRecords lists the standing records of a stage context.
func (w *WorldRecordWorker) CurrentRecords(stageContextID string) ([]models.WorldRecord, error) {
	var records []models.WorldRecord
	err := w.db.Preload("Score").
		Where("stage_context_id = ? AND end_date IS NULL", stageContextID).
		Order("kind ASC").
		Find(&records).Error
	return records, err
}
