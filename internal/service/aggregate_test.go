package service

import (
	"exam_portal_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceRemark(t *testing.T) {
	tests := []struct {
		name       string
		totalScore int
		totalExams int
		want       string
	}{
		{"no exams", 0, 0, "No exams taken yet"},
		{"outstanding at threshold", 18, 1, "Outstanding! 🌟"},
		{"outstanding above threshold", 19, 1, "Outstanding! 🌟"},
		{"excellent at threshold", 16, 1, "Excellent! 👍"},
		{"excellent just below outstanding", 35, 2, "Excellent! 👍"},
		{"very good at threshold", 12, 1, "Very Good"},
		{"good at threshold", 8, 1, "Good"},
		{"keep practicing just below good", 7, 1, "Keep Practicing! 💪"},
		{"keep practicing at zero", 0, 3, "Keep Practicing! 💪"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PerformanceRemark(tt.totalScore, tt.totalExams))
		})
	}
}

func TestCategoryAverages(t *testing.T) {
	records := []model.Score{
		{UserID: 1, Category: "Python", Score: 15},
		{UserID: 1, Category: "Python", Score: 16},
		{UserID: 1, Category: "SQL", Score: 10},
	}

	averages := CategoryAverages(records)

	assert.Equal(t, map[string]float64{
		"Python": 15.5,
		"SQL":    10,
	}, averages)
}

func TestCategoryAveragesEmptyInput(t *testing.T) {
	averages := CategoryAverages(nil)
	assert.Empty(t, averages)
}

func TestCategoryAveragesRoundsToOneDecimal(t *testing.T) {
	records := []model.Score{
		{Category: "Git", Score: 10},
		{Category: "Git", Score: 10},
		{Category: "Git", Score: 11},
	}

	averages := CategoryAverages(records)

	assert.Equal(t, 10.3, averages["Git"])
}

func TestBuildLeaderboardOrdering(t *testing.T) {
	students := []model.User{
		{BaseModel: model.BaseModel{ID: 1}, Username: "alice"},
		{BaseModel: model.BaseModel{ID: 2}, Username: "bob"},
		{BaseModel: model.BaseModel{ID: 3}, Username: "carol"},
	}
	byUser := map[uint][]model.Score{
		1: scoresOf(15, 15, 15),
		2: scoresOf(15, 15, 15, 15, 15),
		3: scoresOf(18),
	}

	entries := BuildLeaderboard(students, byUser)

	// 平均分降序，平均分相同时场次多者在前
	assert.Len(t, entries, 3)
	assert.Equal(t, "carol", entries[0].Username)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, "alice", entries[2].Username)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestBuildLeaderboardSkipsStudentsWithoutScores(t *testing.T) {
	students := []model.User{
		{BaseModel: model.BaseModel{ID: 1}, Username: "active"},
		{BaseModel: model.BaseModel{ID: 2}, Username: "idle"},
	}
	byUser := map[uint][]model.Score{
		1: scoresOf(12),
	}

	entries := BuildLeaderboard(students, byUser)

	assert.Len(t, entries, 1)
	assert.Equal(t, "active", entries[0].Username)
}

func TestBuildLeaderboardStableOnFullTie(t *testing.T) {
	students := []model.User{
		{BaseModel: model.BaseModel{ID: 1}, Username: "first"},
		{BaseModel: model.BaseModel{ID: 2}, Username: "second"},
	}
	byUser := map[uint][]model.Score{
		1: scoresOf(10, 12),
		2: scoresOf(11, 11),
	}

	entries := BuildLeaderboard(students, byUser)

	assert.Equal(t, "first", entries[0].Username)
	assert.Equal(t, "second", entries[1].Username)
}

func TestMeanOfAverages(t *testing.T) {
	assert.Equal(t, 0.0, MeanOfAverages(nil))

	entries := []LeaderboardEntry{
		{Average: 15},
		{Average: 16},
	}
	assert.Equal(t, 15.5, MeanOfAverages(entries))
}

func TestTrendOnePointPerRecord(t *testing.T) {
	day1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []model.Score{
		{Score: 12, TakenAt: day1},
		{Score: 15, TakenAt: day1.Add(time.Hour)},
		{Score: 18, TakenAt: day1.AddDate(0, 0, 1)},
	}

	points := Trend(records, "Jan 02")

	assert.Equal(t, []TrendPoint{
		{Label: "Mar 01", Score: 12},
		{Label: "Mar 01", Score: 15},
		{Label: "Mar 02", Score: 18},
	}, points)
}

func TestGroupByUserKeepsOrder(t *testing.T) {
	records := []model.Score{
		{UserID: 1, Score: 10},
		{UserID: 2, Score: 20},
		{UserID: 1, Score: 11},
	}

	byUser := GroupByUser(records)

	assert.Len(t, byUser[1], 2)
	assert.Equal(t, 10, byUser[1][0].Score)
	assert.Equal(t, 11, byUser[1][1].Score)
	assert.Len(t, byUser[2], 1)
}

func scoresOf(values ...int) []model.Score {
	scores := make([]model.Score, len(values))
	for i, v := range values {
		scores[i] = model.Score{Score: v}
	}
	return scores
}
