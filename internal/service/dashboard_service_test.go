package service

import (
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileDashboardNoExams(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(repository.NewScoreRepository(db))

	dashboard, err := svc.GetProfileDashboard(1)
	require.NoError(t, err)

	assert.Equal(t, 0, dashboard.TotalExams)
	assert.Equal(t, 0, dashboard.TotalScore)
	assert.Equal(t, "No exams taken yet", dashboard.Remark)
	assert.Empty(t, dashboard.Chart)
	assert.Empty(t, dashboard.CategoryAverages)
}

func TestGetProfileDashboard(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	svc := NewDashboardService(scoreRepo)

	student := seedStudent(t, userRepo, "alice", true)
	base := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, scoreRepo.Create(&model.Score{UserID: student.ID, Category: "Python", Score: 18, TakenAt: base}))
	require.NoError(t, scoreRepo.Create(&model.Score{UserID: student.ID, Category: "SQL", Score: 19, TakenAt: base.AddDate(0, 0, 1)}))

	dashboard, err := svc.GetProfileDashboard(student.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.TotalExams)
	assert.Equal(t, 37, dashboard.TotalScore)
	assert.Equal(t, "Outstanding! 🌟", dashboard.Remark)

	require.Len(t, dashboard.Chart, 2)
	assert.Equal(t, "Jul 10, 2025", dashboard.Chart[0].Label)
	assert.Equal(t, 18, dashboard.Chart[0].Score)

	assert.Equal(t, 18.0, dashboard.CategoryAverages["Python"])
	assert.Equal(t, 19.0, dashboard.CategoryAverages["SQL"])
}
