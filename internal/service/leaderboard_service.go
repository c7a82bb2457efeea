package service

import (
	"exam_portal_backend/internal/repository"
	"sort"
)

// 排行榜展示的名额
const topPerformerLimit = 10

type LeaderboardService struct {
	UserRepo  *repository.UserRepository
	ScoreRepo *repository.ScoreRepository
}

func NewLeaderboardService(userRepo *repository.UserRepository, scoreRepo *repository.ScoreRepository) *LeaderboardService {
	return &LeaderboardService{
		UserRepo:  userRepo,
		ScoreRepo: scoreRepo,
	}
}

type Leaderboard struct {
	TopPerformers []LeaderboardEntry `json:"topPerformers"`
	TotalStudents int                `json:"totalStudents"`
	AllAverage    float64            `json:"allAverage"`
}

// GetLeaderboard 已审批且至少考过一次的学生才上榜。
// sortKey 只改变展示顺序，TotalStudents / AllAverage 始终按全部上榜者计算。
func (s *LeaderboardService) GetLeaderboard(sortKey string) (*Leaderboard, error) {
	students, err := s.UserRepo.FindApprovedStudents()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}

	scores, err := s.ScoreRepo.FindByUserIDs(ids)
	if err != nil {
		return nil, err
	}

	entries := BuildLeaderboard(students, GroupByUser(scores))
	total := len(entries)
	allAvg := MeanOfAverages(entries)

	resort(entries, sortKey)

	top := entries
	if len(top) > topPerformerLimit {
		top = top[:topPerformerLimit]
	}

	return &Leaderboard{
		TopPerformers: top,
		TotalStudents: total,
		AllAverage:    allAvg,
	}, nil
}

// resort 重排展示顺序；默认（average_desc）保持 BuildLeaderboard 的结果。
// 名次仍然是按默认排序定下的，换排序键不重新编名次。
func resort(entries []LeaderboardEntry, sortKey string) {
	switch sortKey {
	case "average_asc":
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Average != entries[j].Average {
				return entries[i].Average < entries[j].Average
			}
			return entries[i].TotalExams > entries[j].TotalExams
		})
	case "exams_desc":
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].TotalExams != entries[j].TotalExams {
				return entries[i].TotalExams > entries[j].TotalExams
			}
			return entries[i].Average > entries[j].Average
		})
	case "score_desc":
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].TotalScore != entries[j].TotalScore {
				return entries[i].TotalScore > entries[j].TotalScore
			}
			return entries[i].TotalExams > entries[j].TotalExams
		})
	}
}
