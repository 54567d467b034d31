package services

import (
	"testing"

	"score-tracking-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Platform{},
		&models.Game{},
		&models.MiniGame{},
		&models.Mode{},
		&models.Stage{},
		&models.StageContext{},
		&models.CharacterCostume{},
		&models.Player{},
		&models.Score{},
		&models.ScorePlayer{},
		&models.ScoreApproval{},
		&models.WorldRecordScan{},
		&models.WorldRecord{},
	))
	return db
}

// fakeScheduler records scan nudges without a worker behind them.
type fakeScheduler struct {
	scans []models.WorldRecordScan
}

func (f *fakeScheduler) ScheduleScan(scan models.WorldRecordScan) {
	f.scans = append(f.scans, scan)
}

// refData is the fixture every engine test runs against: one platform/game/
// mini-game, a solo and a duo mode, three ordered stages wired into contexts
// for both modes, two costumes per mode and three players.
type refData struct {
	Platform *models.Platform
	Game     *models.Game
	MiniGame *models.MiniGame
	SoloMode *models.Mode
	DuoMode  *models.Mode
	Stages   []*models.Stage

	SoloContexts map[string]string // stage id -> context id
	DuoContexts  map[string]string

	SoloCostume *models.CharacterCostume
	DuoCostumeA *models.CharacterCostume
	DuoCostumeB *models.CharacterCostume

	PlayerA *models.Player // user "user-a"
	PlayerB *models.Player // user "user-b"
	PlayerC *models.Player // user "user-c"
}

func seedReference(t *testing.T, db *gorm.DB) *refData {
	t.Helper()
	refs := NewReferenceService(db)
	data := &refData{SoloContexts: map[string]string{}, DuoContexts: map[string]string{}}
	var err error

	data.Platform, err = refs.CreatePlatform("pc")
	require.NoError(t, err)
	data.Game, err = refs.CreateGame("crisis run")
	require.NoError(t, err)
	data.MiniGame, err = refs.CreateMiniGame("mercenaries")
	require.NoError(t, err)
	data.SoloMode, err = refs.CreateMode("solo", 1)
	require.NoError(t, err)
	data.DuoMode, err = refs.CreateMode("duo", 2)
	require.NoError(t, err)

	for i, name := range []string{"village", "castle", "island"} {
		stage, err := refs.CreateStage(name, i+1)
		require.NoError(t, err)
		data.Stages = append(data.Stages, stage)
		for _, mode := range []*models.Mode{data.SoloMode, data.DuoMode} {
			ctx, err := refs.CreateStageContext(data.Platform.ID, data.Game.ID, data.MiniGame.ID, mode.ID, stage.ID)
			require.NoError(t, err)
			if mode == data.SoloMode {
				data.SoloContexts[stage.ID] = ctx.ID
			} else {
				data.DuoContexts[stage.ID] = ctx.ID
			}
		}
	}

	data.SoloCostume, err = refs.CreateCharacterCostume(
		data.Platform.ID, data.Game.ID, data.MiniGame.ID, data.SoloMode.ID, "leon", "jacket")
	require.NoError(t, err)
	data.DuoCostumeA, err = refs.CreateCharacterCostume(
		data.Platform.ID, data.Game.ID, data.MiniGame.ID, data.DuoMode.ID, "leon", "jacket")
	require.NoError(t, err)
	data.DuoCostumeB, err = refs.CreateCharacterCostume(
		data.Platform.ID, data.Game.ID, data.MiniGame.ID, data.DuoMode.ID, "claire", "biker")
	require.NoError(t, err)

	data.PlayerA, err = refs.CreatePlayer("user-a", "Ace")
	require.NoError(t, err)
	data.PlayerB, err = refs.CreatePlayer("user-b", "Blitz")
	require.NoError(t, err)
	data.PlayerC, err = refs.CreatePlayer("user-c", "Comet")
	require.NoError(t, err)

	return data
}

func (d *refData) soloInput(stage *models.Stage, value int64) ScoreAddInput {
	return ScoreAddInput{
		PlatformID: d.Platform.ID,
		GameID:     d.Game.ID,
		MiniGameID: d.MiniGame.ID,
		ModeID:     d.SoloMode.ID,
		StageID:    stage.ID,
		Value:      value,
		Time:       `08'31"45`,
		MaxCombo:   120,
		ScorePlayers: []ScorePlayerAddInput{
			{PlayerID: d.PlayerA.ID, CharacterCostumeID: d.SoloCostume.ID},
		},
	}
}

func (d *refData) duoInput(stage *models.Stage, value int64) ScoreAddInput {
	return ScoreAddInput{
		PlatformID: d.Platform.ID,
		GameID:     d.Game.ID,
		MiniGameID: d.MiniGame.ID,
		ModeID:     d.DuoMode.ID,
		StageID:    stage.ID,
		Value:      value,
		Time:       `12'02"80`,
		ScorePlayers: []ScorePlayerAddInput{
			{PlayerID: d.PlayerA.ID, CharacterCostumeID: d.DuoCostumeA.ID},
			{PlayerID: d.PlayerB.ID, CharacterCostumeID: d.DuoCostumeB.ID},
		},
	}
}
