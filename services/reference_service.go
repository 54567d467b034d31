package services

import (
	"strings"

	"score-tracking-system/models"
	"score-tracking-system/stores"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// ReferenceService manages the reference data the engine resolves against:
// platforms, games, mini-games, modes, stages, stage contexts, costumes and
// players. The approval flow only ever reads these tables.
type ReferenceService struct {
	DB    *gorm.DB
	Refs  *stores.ReferenceStore
	title cases.Caser
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{
		DB:    db,
		Refs:  stores.NewReferenceStore(db),
		title: cases.Title(language.English),
	}
}

func (s *ReferenceService) normalizeName(name string) string {
	return s.title.String(strings.TrimSpace(name))
}

func (s *ReferenceService) CreatePlatform(name string) (*models.Platform, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("platform name is required")
	}
	platform := &models.Platform{
		ID:        uuid.NewString(),
		Name:      s.normalizeName(name),
		ShortName: slug.Make(name),
	}
	if err := s.DB.Create(platform).Error; err != nil {
		return nil, err
	}
	return platform, nil
}

func (s *ReferenceService) CreateGame(name string) (*models.Game, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("game name is required")
	}
	game := &models.Game{
		ID:        uuid.NewString(),
		Name:      s.normalizeName(name),
		ShortName: slug.Make(name),
	}
	if err := s.DB.Create(game).Error; err != nil {
		return nil, err
	}
	return game, nil
}

func (s *ReferenceService) CreateMiniGame(name string) (*models.MiniGame, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("mini game name is required")
	}
	miniGame := &models.MiniGame{ID: uuid.NewString(), Name: s.normalizeName(name)}
	if err := s.DB.Create(miniGame).Error; err != nil {
		return nil, err
	}
	return miniGame, nil
}

func (s *ReferenceService) CreateMode(name string, playerQuantity int) (*models.Mode, error) {
	if playerQuantity < 1 {
		return nil, validationf("player_quantity must be at least 1")
	}
	mode := &models.Mode{
		ID:             uuid.NewString(),
		Name:           s.normalizeName(name),
		PlayerQuantity: playerQuantity,
	}
	if err := s.DB.Create(mode).Error; err != nil {
		return nil, err
	}
	return mode, nil
}

func (s *ReferenceService) CreateStage(name string, sortOrder int) (*models.Stage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationf("stage name is required")
	}
	stage := &models.Stage{
		ID:        uuid.NewString(),
		Name:      s.normalizeName(name),
		ShortName: slug.Make(name),
		SortOrder: sortOrder,
	}
	if err := s.DB.Create(stage).Error; err != nil {
		return nil, err
	}
	return stage, nil
}

// CreateStageContext links a stage into a platform/game/mini-game/mode
// combination, making it a valid submission target.
func (s *ReferenceService) CreateStageContext(platformID, gameID, miniGameID, modeID, stageID string) (*models.StageContext, error) {
	ctx := &models.StageContext{
		ID:         uuid.NewString(),
		PlatformID: platformID,
		GameID:     gameID,
		MiniGameID: miniGameID,
		ModeID:     modeID,
		StageID:    stageID,
	}
	if err := s.DB.Create(ctx).Error; err != nil {
		return nil, err
	}
	return ctx, nil
}

func (s *ReferenceService) CreateCharacterCostume(platformID, gameID, miniGameID, modeID, characterName, costumeName string) (*models.CharacterCostume, error) {
	if strings.TrimSpace(characterName) == "" || strings.TrimSpace(costumeName) == "" {
		return nil, validationf("character_name and costume_name are required")
	}
	costume := &models.CharacterCostume{
		ID:            uuid.NewString(),
		PlatformID:    platformID,
		GameID:        gameID,
		MiniGameID:    miniGameID,
		ModeID:        modeID,
		CharacterName: s.normalizeName(characterName),
		CostumeName:   s.normalizeName(costumeName),
		ShortName:     slug.Make(characterName + "-" + costumeName),
	}
	if err := s.DB.Create(costume).Error; err != nil {
		return nil, err
	}
	return costume, nil
}

func (s *ReferenceService) CreatePlayer(userID, personaName string) (*models.Player, error) {
	if userID == "" || strings.TrimSpace(personaName) == "" {
		return nil, validationf("user_id and persona_name are required")
	}
	player := &models.Player{
		ID:          uuid.NewString(),
		UserID:      userID,
		PersonaName: strings.TrimSpace(personaName),
	}
	if err := s.DB.Create(player).Error; err != nil {
		return nil, err
	}
	return player, nil
}
