package controller

import (
	"bytes"
	"encoding/json"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/middleware"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/questionbank"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBankYAML = `categories:
  - name: Python
    questions:
      - prompt: "What is the output of print(2 ** 3)?"
        options:
          - {label: A, text: "6"}
          - {label: B, text: "8"}
        answer: B
      - prompt: "Which keyword defines a function?"
        options:
          - {label: A, text: "def"}
          - {label: B, text: "func"}
        answer: A
`

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	userRepo *repository.UserRepository
	cfg      *config.Config
}

type nullMail struct{}

func (nullMail) Send(to, subject, body string) error { return nil }

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestEnv 用本地身份校验、内存库和真实路由拼一个完整服务
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Score{}))

	cfg := &config.Config{}
	cfg.JWT.Secret = "controller-test-secret-0123456789"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Server.Port = "8080"
	cfg.Questions.SecondsPer = 60
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()

	bankPath := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(bankPath, []byte(testBankYAML), 0644))
	bank, err := questionbank.Load(bankPath)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	userRepo := repository.NewUserRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	identity := &service.LocalIdentityProvider{UserRepo: userRepo}
	tokens := service.NewResetTokenStore(rdb, service.ResetTokenTTL)
	storage := service.NewStorageService(cfg)

	authService := service.NewAuthService(userRepo, identity, nullMail{}, tokens, cfg)
	userService := service.NewUserService(userRepo, storage)
	examService := service.NewExamService(bank, scoreRepo, userRepo)
	dashboardService := service.NewDashboardService(scoreRepo)
	leaderboardService := service.NewLeaderboardService(userRepo, scoreRepo)
	adminService := service.NewAdminService(userRepo, scoreRepo)

	authCtrl := NewAuthController(authService)
	userCtrl := NewUserController(userService, authService, dashboardService)
	examCtrl := NewExamController(examService, cfg)
	adminCtrl := NewAdminController(adminService)
	leaderboardCtrl := NewLeaderboardController(leaderboardService)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/signup", authCtrl.Signup)
	api.POST("/login", authCtrl.Login)
	api.POST("/forgot_password", authCtrl.ForgotPassword)
	api.POST("/reset_password/:token", authCtrl.ResetPassword)
	api.GET("/leaderboard", leaderboardCtrl.GetLeaderboard)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	authed.GET("/profile", userCtrl.GetProfile)
	authed.PUT("/profile", userCtrl.UpdateProfile)

	exam := authed.Group("/exam")
	exam.Use(middleware.RoleMiddleware(model.Student))
	exam.Use(middleware.ApprovedMiddleware())
	exam.GET("/:category", examCtrl.GetExam)
	exam.POST("/:category", examCtrl.SubmitExam)

	admin := authed.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	admin.GET("", adminCtrl.GetDashboard)
	admin.POST("", adminCtrl.Act)

	return &testEnv{router: router, db: db, userRepo: userRepo, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	admin := &model.User{Username: "root", Email: "root@example.com", Role: model.Admin, Approved: true}
	require.NoError(t, e.userRepo.Create(admin))
	token, err := util.GenerateJWT(admin, e.cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return token
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestSignupApproveLoginExamFlow(t *testing.T) {
	env := newTestEnv(t)

	// 注册
	w := env.do(t, "POST", "/api/signup", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	userID := decodeData(t, w)["id"].(float64)

	// 未审批前登录被拒
	w = env.do(t, "POST", "/api/login", "", gin.H{"email": "alice@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "pending admin approval")

	// 管理员放行
	adminToken := env.adminToken(t)
	w = env.do(t, "POST", "/api/admin", adminToken, gin.H{"user_id": uint(userID), "action": "approve"})
	require.Equal(t, http.StatusOK, w.Code)

	// 登录拿令牌
	w = env.do(t, "POST", "/api/login", "", gin.H{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeData(t, w)["token"].(string)

	// 取卷：不能泄露答案
	w = env.do(t, "GET", "/api/exam/Python", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"answer"`)
	data := decodeData(t, w)
	assert.Equal(t, float64(2), data["numQuestions"])
	assert.Equal(t, float64(120), data["totalTimeSeconds"])

	// 交卷：全对
	w = env.do(t, "POST", "/api/exam/Python", token, gin.H{"answers": []string{"B", "A"}})
	require.Equal(t, http.StatusCreated, w.Code)
	data = decodeData(t, w)
	assert.Equal(t, float64(2), data["score"])
	assert.Equal(t, "You scored 2/2!", data["message"])

	// 个人面板
	w = env.do(t, "GET", "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decodeData(t, w)["dashboard"].(map[string]interface{})
	assert.Equal(t, float64(1), dashboard["totalExams"])
	assert.Equal(t, float64(2), dashboard["totalScore"])

	// 排行榜公开可见
	w = env.do(t, "GET", "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decodeData(t, w)
	assert.Equal(t, float64(1), board["totalStudents"])
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{"username": "alice", "email": "alice@example.com", "password": "secret123"}
	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/signup", "", payload).Code)

	w := env.do(t, "POST", "/api/signup", "", gin.H{
		"username": "other", "email": "alice@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/signup", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	}).Code)

	w := env.do(t, "POST", "/api/login", "", gin.H{"email": "alice@example.com", "password": "wrongpass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExamRoutesRejectAdmins(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)

	w := env.do(t, "GET", "/api/exam/Python", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "POST", "/api/exam/Python", adminToken, gin.H{"answers": []string{"B", "A"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmitExamIncomplete(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/signup", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	}).Code)
	user, err := env.userRepo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	user.Approved = true
	require.NoError(t, env.userRepo.Update(user))

	w := env.do(t, "POST", "/api/login", "", gin.H{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeData(t, w)["token"].(string)

	w = env.do(t, "POST", "/api/exam/Python", token, gin.H{"answers": []string{"B"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "All questions must be answered")

	w = env.do(t, "POST", "/api/exam/Unknown", token, gin.H{"answers": []string{"B"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid category")
}

func TestAdminActInvalidTarget(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.adminToken(t)

	w := env.do(t, "POST", "/api/admin", adminToken, gin.H{"user_id": 424242, "action": "approve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid target user")
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/signup", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	}).Code)

	token, err := util.GenerateResetToken("alice@example.com", env.cfg.JWT.Secret, service.ResetTokenTTL)
	require.NoError(t, err)

	w := env.do(t, "POST", "/api/reset_password/"+token, "", gin.H{
		"password": "newpassword1", "confirm_password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 同一链接第二次使用失败
	w = env.do(t, "POST", "/api/reset_password/"+token, "", gin.H{
		"password": "newpassword2", "confirm_password": "newpassword2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired reset link")
}
