package service

import (
	"exam_portal_backend/internal/model"
	"math"
	"sort"
)

// LeaderboardEntry 派生数据，不落库，每次读取从成绩账本重算
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	ProfilePic string  `json:"profilePic"`
	TotalExams int     `json:"totalExams"`
	TotalScore int     `json:"totalScore"`
	Average    float64 `json:"average"`
}

type TrendPoint struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func TotalScore(records []model.Score) int {
	total := 0
	for _, r := range records {
		total += r.Score
	}
	return total
}

// PerformanceRemark 基于平均分的评语。阈值按满分20分的考试标定，
// 题库规模变化时需要重新标定，这是固定而非自适应的刻度。
func PerformanceRemark(totalScore, totalExams int) string {
	if totalExams == 0 {
		return "No exams taken yet"
	}
	average := float64(totalScore) / float64(totalExams)
	switch {
	case average >= 18:
		return "Outstanding! 🌟"
	case average >= 16:
		return "Excellent! 👍"
	case average >= 12:
		return "Very Good"
	case average >= 8:
		return "Good"
	default:
		return "Keep Practicing! 💪"
	}
}

// CategoryAverages 按分类的平均分，保留一位小数。
// 没有记录的分类不出现在结果里，因此不存在除零。
func CategoryAverages(records []model.Score) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range records {
		sums[r.Category] += r.Score
		counts[r.Category]++
	}

	averages := make(map[string]float64, len(counts))
	for cat, count := range counts {
		averages[cat] = round1(float64(sums[cat]) / float64(count))
	}
	return averages
}

// BuildLeaderboard 为每个至少有一条成绩的学生生成条目并排名。
// 零考试的学生完全不出现。平均分降序，场次降序作平局判定，
// 两者都相等时保持输入顺序（稳定排序）。名次从1开始，排序后赋值。
func BuildLeaderboard(students []model.User, recordsByUser map[uint][]model.Score) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(students))
	for _, student := range students {
		records := recordsByUser[student.ID]
		if len(records) == 0 {
			continue
		}
		totalExams := len(records)
		totalScore := TotalScore(records)
		entries = append(entries, LeaderboardEntry{
			Username:   student.Username,
			Email:      student.Email,
			ProfilePic: student.ProfilePic,
			TotalExams: totalExams,
			TotalScore: totalScore,
			Average:    round1(float64(totalScore) / float64(totalExams)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Average != entries[j].Average {
			return entries[i].Average > entries[j].Average
		}
		return entries[i].TotalExams > entries[j].TotalExams
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// MeanOfAverages 所有上榜条目平均分的均值，保留一位小数，无条目时为0
func MeanOfAverages(entries []LeaderboardEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += e.Average
	}
	return round1(sum / float64(len(entries)))
}

// Trend 每条成绩一个点，不做聚合，输入需已按时间升序
func Trend(records []model.Score, layout string) []TrendPoint {
	points := make([]TrendPoint, len(records))
	for i, r := range records {
		points[i] = TrendPoint{
			Label: r.TakenAt.Format(layout),
			Score: r.Score,
		}
	}
	return points
}

// GroupByUser 成绩按用户分组，保序
func GroupByUser(records []model.Score) map[uint][]model.Score {
	byUser := make(map[uint][]model.Score)
	for _, r := range records {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	return byUser
}
