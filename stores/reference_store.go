package stores

import (
	"errors"

	"score-tracking-system/models"

	"gorm.io/gorm"
)

var (
	ErrModeNotFound         = errors.New("mode not found")
	ErrStageContextNotFound = errors.New("stage context not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrCostumeNotFound      = errors.New("character costume not found")
)

// ReferenceStore resolves the read-only reference data the approval engine
// and the leaderboard depend on.
type ReferenceStore struct {
	DB *gorm.DB
}

func NewReferenceStore(db *gorm.DB) *ReferenceStore {
	return &ReferenceStore{DB: db}
}

func (s *ReferenceStore) FindModeByID(id string) (*models.Mode, error) {
	var mode models.Mode
	if err := s.DB.First(&mode, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModeNotFound
		}
		return nil, err
	}
	return &mode, nil
}

// FindStageContextID resolves the unique context for a full dimensional key.
func (s *ReferenceStore) FindStageContextID(platformID, gameID, miniGameID, modeID, stageID string) (string, error) {
	var ctx models.StageContext
	err := s.DB.
		Where("platform_id = ? AND game_id = ? AND mini_game_id = ? AND mode_id = ? AND stage_id = ?",
			platformID, gameID, miniGameID, modeID, stageID).
		First(&ctx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrStageContextNotFound
	}
	if err != nil {
		return "", err
	}
	return ctx.ID, nil
}

func (s *ReferenceStore) FindStageContextByID(id string) (*models.StageContext, error) {
	var ctx models.StageContext
	err := s.DB.Preload("Stage").Preload("Mode").First(&ctx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStageContextNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ctx, nil
}

// FindStagesByDims returns the ordered stage list of a platform/game/
// mini-game/mode combination. Stage ordering is a stable property of the
// stage configuration, so leaderboard columns are deterministic.
func (s *ReferenceStore) FindStagesByDims(platformID, gameID, miniGameID, modeID string) ([]models.Stage, error) {
	var stages []models.Stage
	err := s.DB.
		Joins("JOIN stage_contexts ON stage_contexts.stage_id = stages.id").
		Where("stage_contexts.platform_id = ? AND stage_contexts.game_id = ? AND stage_contexts.mini_game_id = ? AND stage_contexts.mode_id = ?",
			platformID, gameID, miniGameID, modeID).
		Order("stages.sort_order ASC").
		Find(&stages).Error
	return stages, err
}

// ValidateCostume checks that a costume belongs to the given platform/game/
// mini-game/mode combination before it is attached to a score participant.
func (s *ReferenceStore) ValidateCostume(platformID, gameID, miniGameID, modeID, costumeID string) error {
	var count int64
	err := s.DB.Model(&models.CharacterCostume{}).
		Where("id = ? AND platform_id = ? AND game_id = ? AND mini_game_id = ? AND mode_id = ?",
			costumeID, platformID, gameID, miniGameID, modeID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCostumeNotFound
	}
	return nil
}

// PlayerStore resolves player identities for authenticated actors.
type PlayerStore struct {
	DB *gorm.DB
}

func NewPlayerStore(db *gorm.DB) *PlayerStore {
	return &PlayerStore{DB: db}
}

func (s *PlayerStore) FindIDByUserID(userID string) (string, error) {
	var player models.Player
	err := s.DB.Select("id").First(&player, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrPlayerNotFound
	}
	if err != nil {
		return "", err
	}
	return player.ID, nil
}

func (s *PlayerStore) FindByID(id string) (*models.Player, error) {
	var player models.Player
	err := s.DB.First(&player, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}
