package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"score-tracking-system/models"
	"score-tracking-system/services"
	"score-tracking-system/workers"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiFixture struct {
	app    *fiber.App
	db     *gorm.DB
	scores *services.ScoreService

	platform *models.Platform
	game     *models.Game
	miniGame *models.MiniGame
	soloMode *models.Mode
	stage    *models.Stage
	costume  *models.CharacterCostume
	player   *models.Player
}

func newAPIFixture(t *testing.T) *apiFixture {
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

	refs := services.NewReferenceService(db)
	f := &apiFixture{db: db}
	f.platform, err = refs.CreatePlatform("pc")
	require.NoError(t, err)
	f.game, err = refs.CreateGame("crisis run")
	require.NoError(t, err)
	f.miniGame, err = refs.CreateMiniGame("mercenaries")
	require.NoError(t, err)
	f.soloMode, err = refs.CreateMode("solo", 1)
	require.NoError(t, err)
	f.stage, err = refs.CreateStage("village", 1)
	require.NoError(t, err)
	_, err = refs.CreateStageContext(f.platform.ID, f.game.ID, f.miniGame.ID, f.soloMode.ID, f.stage.ID)
	require.NoError(t, err)
	f.costume, err = refs.CreateCharacterCostume(f.platform.ID, f.game.ID, f.miniGame.ID, f.soloMode.ID, "leon", "jacket")
	require.NoError(t, err)
	f.player, err = refs.CreatePlayer("user-a", "Ace")
	require.NoError(t, err)

	worker := workers.NewWorldRecordWorker(db, time.Minute)
	f.scores = services.NewScoreService(db, worker)
	leaderboard := services.NewLeaderboardService(db)

	f.app = fiber.New()
	SetupScoreRoutes(f.app, f.scores, leaderboard, worker)
	return f
}

func (f *apiFixture) request(t *testing.T, method, target string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (f *apiFixture) submitBody() services.ScoreAddInput {
	return services.ScoreAddInput{
		PlatformID: f.platform.ID,
		GameID:     f.game.ID,
		MiniGameID: f.miniGame.ID,
		ModeID:     f.soloMode.ID,
		StageID:    f.stage.ID,
		Value:      150000,
		Time:       `08'31"45`,
		ScorePlayers: []services.ScorePlayerAddInput{
			{PlayerID: f.player.ID, CharacterCostumeID: f.costume.ID},
		},
	}
}

var userHeaders = map[string]string{"X-User-ID": "user-a"}
var adminHeaders = map[string]string{"X-User-ID": "admin-1", "X-User-Roles": "admin"}

func TestSubmitScoreEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, fiber.MethodPost, "/scores", f.submitBody(), userHeaders)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var view services.ScoreView
	decode(t, resp, &view)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, models.StatusAwaitingApprovalAdmin, view.Status)
	require.Len(t, view.ScorePlayers, 1)
	assert.True(t, view.ScorePlayers[0].Host)
	assert.Equal(t, "Ace", view.ScorePlayers[0].PersonaName)

	resp = f.request(t, fiber.MethodGet, "/scores/"+view.ID, nil, userHeaders)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSubmitScoreErrors(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("missing auth context", func(t *testing.T) {
		resp := f.request(t, fiber.MethodPost, "/scores", f.submitBody(), nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown mode maps to 404", func(t *testing.T) {
		body := f.submitBody()
		body.ModeID = "missing"
		resp := f.request(t, fiber.MethodPost, "/scores", body, userHeaders)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("player count mismatch maps to 400", func(t *testing.T) {
		body := f.submitBody()
		body.ScorePlayers = nil
		resp := f.request(t, fiber.MethodPost, "/scores", body, userHeaders)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminApprovalEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, fiber.MethodPost, "/scores", f.submitBody(), userHeaders)
	var view services.ScoreView
	decode(t, resp, &view)

	action := fiber.Map{"action": "approve", "description": "verified"}

	t.Run("admin role required", func(t *testing.T) {
		resp := f.request(t, fiber.MethodPost, "/admin/scores/"+view.ID+"/approval", action, userHeaders)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("approve", func(t *testing.T) {
		resp := f.request(t, fiber.MethodPost, "/admin/scores/"+view.ID+"/approval", action, adminHeaders)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		reloaded, err := f.scores.FindByID(view.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, reloaded.Status)
	})

	t.Run("repeat approve conflicts", func(t *testing.T) {
		resp := f.request(t, fiber.MethodPost, "/admin/scores/"+view.ID+"/approval", action, adminHeaders)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestPeerApprovalEndpointBadAction(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, fiber.MethodPost, "/scores", f.submitBody(), userHeaders)
	var view services.ScoreView
	decode(t, resp, &view)

	resp = f.request(t, fiber.MethodPost, "/scores/"+view.ID+"/approval",
		fiber.Map{"action": "maybe"}, userHeaders)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestApprovalQueueEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.request(t, fiber.MethodPost, "/scores", f.submitBody(), userHeaders)

	resp := f.request(t, fiber.MethodGet,
		"/admin/scores/approval/pending?platform_id="+f.platform.ID+"&page=1", nil, adminHeaders)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list services.ApprovalListView
	decode(t, resp, &list)
	assert.Len(t, list.Scores, 1)
	assert.Equal(t, int64(1), list.Meta.TotalItems)

	// platform_id is mandatory.
	resp = f.request(t, fiber.MethodGet, "/admin/scores/approval/pending?page=1", nil, adminHeaders)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, fiber.MethodGet,
		"/scores/approval/pending?platform_id="+f.platform.ID+"&page=1", nil, userHeaders)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &list)
	assert.Empty(t, list.Scores, "solo scores never enter the peer queue")
}

func TestLeaderboardEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, fiber.MethodPost, "/scores", f.submitBody(), userHeaders)
	var view services.ScoreView
	decode(t, resp, &view)
	require.NoError(t, f.scores.ApprovalAdmin(view.ID, "admin-1", models.ApprovalActionApprove, ""))

	resp = f.request(t, fiber.MethodGet,
		"/leaderboard?platform_id="+f.platform.ID+"&game_id="+f.game.ID+
			"&mini_game_id="+f.miniGame.ID+"&mode_id="+f.soloMode.ID, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var table services.ScoreTable
	decode(t, resp, &table)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(150000), table.Rows[0].Total)
	assert.Equal(t, 1, table.Rows[0].Position)

	resp = f.request(t, fiber.MethodGet, "/leaderboard", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWorldRecordsEndpointRequiresContext(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.request(t, fiber.MethodGet, "/world-records", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
