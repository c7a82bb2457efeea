package service

import (
	"exam_portal_backend/internal/repository"
)

// 图表横轴的日期格式
const (
	profileDateLayout = "Jan 02, 2006"
	trendDateLayout   = "Jan 02"
)

type DashboardService struct {
	ScoreRepo *repository.ScoreRepository
}

func NewDashboardService(scoreRepo *repository.ScoreRepository) *DashboardService {
	return &DashboardService{ScoreRepo: scoreRepo}
}

// ProfileDashboard 学生个人面板，每次请求从全量账本重算
type ProfileDashboard struct {
	TotalExams       int                `json:"totalExams"`
	TotalScore       int                `json:"totalScore"`
	Remark           string             `json:"remark"`
	Chart            []TrendPoint       `json:"chart"`
	CategoryAverages map[string]float64 `json:"categoryAverages"`
}

func (s *DashboardService) GetProfileDashboard(userID uint) (*ProfileDashboard, error) {
	scores, err := s.ScoreRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	totalScore := TotalScore(scores)
	totalExams := len(scores)

	return &ProfileDashboard{
		TotalExams:       totalExams,
		TotalScore:       totalScore,
		Remark:           PerformanceRemark(totalScore, totalExams),
		Chart:            Trend(scores, profileDateLayout),
		CategoryAverages: CategoryAverages(scores),
	}, nil
}
