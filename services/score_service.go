package services

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"score-tracking-system/models"
	"score-tracking-system/stores"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanScheduler hands a committed world-record scan off to the worker. The
// request row is already durable when this is called; the scheduler only
// wakes the worker, so a failure here never affects the approval.
type ScanScheduler interface {
	ScheduleScan(scan models.WorldRecordScan)
}

// ScorePlayerAddInput is one participant of a submission.
type ScorePlayerAddInput struct {
	PlayerID           string `json:"player_id"`
	CharacterCostumeID string `json:"character_costume_id"`
	Host               bool   `json:"host"`
	BulletKills        int    `json:"bullet_kills"`
	Description        string `json:"description"`
	Evidence           string `json:"evidence"`
}

// ScoreAddInput is a full score submission.
type ScoreAddInput struct {
	PlatformID string `json:"platform_id"`
	GameID     string `json:"game_id"`
	MiniGameID string `json:"mini_game_id"`
	ModeID     string `json:"mode_id"`
	StageID    string `json:"stage_id"`

	Value       int64  `json:"value"`
	Time        string `json:"time"`
	MaxCombo    int    `json:"max_combo"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`

	ScorePlayers []ScorePlayerAddInput `json:"score_players"`
}

// ScoreService is the approval engine: it owns the score lifecycle from
// submission through peer and admin approval.
type ScoreService struct {
	DB        *gorm.DB
	Scores    *stores.ScoreStore
	Refs      *stores.ReferenceStore
	Players   *stores.PlayerStore
	Scheduler ScanScheduler
}

func NewScoreService(db *gorm.DB, scheduler ScanScheduler) *ScoreService {
	return &ScoreService{
		DB:        db,
		Scores:    stores.NewScoreStore(db),
		Refs:      stores.NewReferenceStore(db),
		Players:   stores.NewPlayerStore(db),
		Scheduler: scheduler,
	}
}

// Submit validates and persists a new score with its participants in one
// transaction. Initial status depends on the mode: solo scores skip peer
// review entirely.
func (s *ScoreService) Submit(input ScoreAddInput, userID string) (*models.Score, error) {
	mode, err := s.Refs.FindModeByID(input.ModeID)
	if err != nil {
		return nil, err
	}
	createdByPlayerID, err := s.Players.FindIDByUserID(userID)
	if err != nil {
		return nil, err
	}
	if mode.PlayerQuantity != len(input.ScorePlayers) {
		return nil, validationf("this mode requires %d player(s), but we received %d",
			mode.PlayerQuantity, len(input.ScorePlayers))
	}
	stageContextID, err := s.Refs.FindStageContextID(
		input.PlatformID, input.GameID, input.MiniGameID, input.ModeID, input.StageID)
	if err != nil {
		return nil, err
	}
	for _, sp := range input.ScorePlayers {
		if err := s.Refs.ValidateCostume(
			input.PlatformID, input.GameID, input.MiniGameID, input.ModeID, sp.CharacterCostumeID); err != nil {
			return nil, err
		}
	}

	players := assignHost(input.ScorePlayers, createdByPlayerID)

	status := models.StatusAwaitingApprovalAdmin
	if mode.PlayerQuantity > 1 {
		status = models.StatusAwaitingApprovalPlayer
	}

	score := &models.Score{
		ID:                uuid.NewString(),
		StageContextID:    stageContextID,
		CreatedByPlayerID: createdByPlayerID,
		Value:             input.Value,
		Time:              input.Time,
		MaxCombo:          input.MaxCombo,
		Description:       input.Description,
		Evidence:          input.Evidence,
		Status:            status,
	}
	rows := make([]models.ScorePlayer, 0, len(players))
	for _, sp := range players {
		rows = append(rows, models.ScorePlayer{
			ID:                 uuid.NewString(),
			PlayerID:           sp.PlayerID,
			CharacterCostumeID: sp.CharacterCostumeID,
			Host:               sp.Host,
			BulletKills:        sp.BulletKills,
			Description:        sp.Description,
			Evidence:           sp.Evidence,
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Scores.Save(tx, score, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.Scores.FindByIDOrFail(s.DB, score.ID, true)
}

// assignHost applies the host fallback rule: when no submitted entry is
// flagged host, the submitter's own entry becomes host, or the first entry
// when the submitter is not among the participants.
func assignHost(players []ScorePlayerAddInput, createdByPlayerID string) []ScorePlayerAddInput {
	for _, sp := range players {
		if sp.Host {
			return players
		}
	}
	hostPlayerID := players[0].PlayerID
	for _, sp := range players {
		if sp.PlayerID == createdByPlayerID {
			hostPlayerID = sp.PlayerID
			break
		}
	}
	out := make([]ScorePlayerAddInput, len(players))
	for i, sp := range players {
		sp.Host = sp.PlayerID == hostPlayerID
		out[i] = sp
	}
	return out
}

// ApprovalPlayer records one peer approval or rejection. Allowed only while
// the score is in the peer track. When every non-host participant has an
// approve on record the score moves on to the admin queue; a single reject
// parks it in RejectedByPlayer without deleting anything.
func (s *ScoreService) ApprovalPlayer(scoreID, userID, action, comment string) error {
	if err := validateAction(action); err != nil {
		return err
	}
	playerID, err := s.Players.FindIDByUserID(userID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		score, err := s.Scores.LockByID(tx, scoreID)
		if err != nil {
			return err
		}
		if score.Status != models.StatusAwaitingApprovalPlayer && score.Status != models.StatusRejectedByPlayer {
			return &InvalidTransitionError{Action: "player", CurrentStatus: score.Status}
		}
		host := score.HostPlayer()
		if host != nil && host.PlayerID == playerID {
			return validationf("the host cannot peer-approve their own score")
		}
		if !isParticipant(score.ScorePlayers, playerID) {
			return validationf("player is not a participant of this score")
		}

		if err := s.Scores.AddApproval(tx, &models.ScoreApproval{
			ID:          uuid.NewString(),
			ScoreID:     scoreID,
			PlayerID:    &playerID,
			Action:      action,
			ActionDate:  time.Now(),
			Description: comment,
		}); err != nil {
			return err
		}

		countPlayers, err := s.Scores.CountNonHostPlayers(tx, scoreID)
		if err != nil {
			return err
		}
		hostPlayerID := ""
		if host != nil {
			hostPlayerID = host.PlayerID
		}
		countApprovals, err := s.Scores.CountDistinctPeerApprovals(tx, scoreID, hostPlayerID)
		if err != nil {
			return err
		}

		if countPlayers == countApprovals || action == models.ApprovalActionReject {
			status := models.StatusRejectedByPlayer
			if action == models.ApprovalActionApprove {
				status = models.StatusAwaitingApprovalAdmin
			}
			return s.Scores.Update(tx, scoreID, map[string]interface{}{"status": status})
		}
		return nil
	})
}

// ApprovalAdmin finalizes the score. Approval also writes the durable
// world-record scan request for the score's stage and costume line-up,
// backdated 5 seconds to soak up clock skew between submission and approval.
func (s *ScoreService) ApprovalAdmin(scoreID, userID, action, comment string) error {
	if err := validateAction(action); err != nil {
		return err
	}

	var scheduled *models.WorldRecordScan
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		score, err := s.Scores.LockByID(tx, scoreID)
		if err != nil {
			return err
		}
		if score.Status != models.StatusAwaitingApprovalAdmin && score.Status != models.StatusRejectedByAdmin {
			return &InvalidTransitionError{Action: "admin", CurrentStatus: score.Status}
		}

		if err := s.Scores.AddApproval(tx, &models.ScoreApproval{
			ID:          uuid.NewString(),
			ScoreID:     scoreID,
			UserID:      &userID,
			Action:      action,
			ActionDate:  time.Now(),
			Description: comment,
		}); err != nil {
			return err
		}

		status := models.StatusRejectedByAdmin
		if action == models.ApprovalActionApprove {
			status = models.StatusApproved
		}
		now := time.Now()
		if err := s.Scores.Update(tx, scoreID, map[string]interface{}{
			"status":        status,
			"approval_date": now,
		}); err != nil {
			return err
		}

		if action != models.ApprovalActionApprove {
			return nil
		}
		scan, err := buildScan(score)
		if err != nil {
			return err
		}
		if err := tx.Create(scan).Error; err != nil {
			return err
		}
		scheduled = scan
		return nil
	})
	if err != nil {
		return err
	}

	// Post-commit nudge. The row is already durable, so a missing or failing
	// scheduler only delays the scan until the next sweep.
	if scheduled != nil && s.Scheduler != nil {
		s.Scheduler.ScheduleScan(*scheduled)
	} else if scheduled != nil {
		log.Printf("[SCORE] no scan scheduler configured, scan %s waits for sweep", scheduled.ID)
	}
	return nil
}

func buildScan(score *models.Score) (*models.WorldRecordScan, error) {
	costumeIDs := make([]string, 0, len(score.ScorePlayers))
	for _, sp := range score.ScorePlayers {
		costumeIDs = append(costumeIDs, sp.CharacterCostumeID)
	}
	sort.Strings(costumeIDs)
	encoded, err := json.Marshal(costumeIDs)
	if err != nil {
		return nil, err
	}
	return &models.WorldRecordScan{
		ID:             uuid.NewString(),
		StageContextID: score.StageContextID,
		FromDate:       score.CreatedAt.Add(-5 * time.Second),
		CostumeIDs:     string(encoded),
		Status:         models.ScanStatusPending,
	}, nil
}

func isParticipant(players []models.ScorePlayer, playerID string) bool {
	for _, sp := range players {
		if sp.PlayerID == playerID {
			return true
		}
	}
	return false
}

func validateAction(action string) error {
	if action != models.ApprovalActionApprove && action != models.ApprovalActionReject {
		return validationf("unknown approval action %q", action)
	}
	return nil
}

// FindByID returns one score with all relations for projection.
func (s *ScoreService) FindByID(scoreID string) (*models.Score, error) {
	return s.Scores.FindByIDOrFail(s.DB, scoreID, true)
}

// FindApprovalListAdmin pages the admin approval queue. PlatformID and Page
// are required filter dimensions.
func (s *ScoreService) FindApprovalListAdmin(params stores.ApprovalListParams) ([]models.Score, models.Pagination, error) {
	if err := validateListParams(&params); err != nil {
		return nil, models.Pagination{}, err
	}
	return s.Scores.FindApprovalListAdmin(params)
}

// FindApprovalListPlayer pages the scores still waiting on the calling
// player's peer approval.
func (s *ScoreService) FindApprovalListPlayer(userID string, params stores.ApprovalListParams) ([]models.Score, models.Pagination, error) {
	if err := validateListParams(&params); err != nil {
		return nil, models.Pagination{}, err
	}
	playerID, err := s.Players.FindIDByUserID(userID)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return s.Scores.FindApprovalListPlayer(playerID, params)
}

func validateListParams(params *stores.ApprovalListParams) error {
	if params.PlatformID == "" || params.Page == 0 {
		return validationf("platform_id and page are required")
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}
	return nil
}
