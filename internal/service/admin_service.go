package service

import (
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"

	"go.uber.org/zap"
)

type AdminService struct {
	UserRepo  *repository.UserRepository
	ScoreRepo *repository.ScoreRepository
}

func NewAdminService(userRepo *repository.UserRepository, scoreRepo *repository.ScoreRepository) *AdminService {
	return &AdminService{
		UserRepo:  userRepo,
		ScoreRepo: scoreRepo,
	}
}

// Approve 只对未审批的学生生效。条件更新使并发的 approve/reject
// 竞争安全失败而不是静默覆盖；0 行生效一律按无效目标处理。
func (s *AdminService) Approve(userID uint) error {
	affected, err := s.UserRepo.Approve(userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Log.Info("approve rejected: target missing, not a student, or already approved",
			zap.Uint("user_id", userID))
		return util.ErrInvalidTarget
	}
	return nil
}

// Reject 删除学生及其全部成绩（单事务）。管理员和不存在的目标都报无效。
func (s *AdminService) Reject(userID uint) error {
	affected, err := s.UserRepo.DeleteStudentCascade(userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Log.Info("reject rejected: target missing or not a student",
			zap.Uint("user_id", userID))
		return util.ErrInvalidTarget
	}
	return nil
}

// AdminDashboard 管理端聚合视图
type AdminDashboard struct {
	PendingUsers     []model.User            `json:"pendingUsers"`
	ApprovedUsers    []model.User            `json:"approvedUsers"`
	UserScores       map[uint][]model.Score  `json:"userScores"`
	CategoryAverages map[string]float64      `json:"categoryAverages"`
	Trend            []TrendPoint            `json:"trend"`
}

func (s *AdminService) GetDashboard() (*AdminDashboard, error) {
	pending, err := s.UserRepo.FindPendingStudents()
	if err != nil {
		return nil, err
	}

	approved, err := s.UserRepo.FindApprovedStudents()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(approved))
	for i, u := range approved {
		ids[i] = u.ID
	}

	scores, err := s.ScoreRepo.FindByUserIDs(ids)
	if err != nil {
		return nil, err
	}

	allScores, err := s.ScoreRepo.FindForApprovedStudents()
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		PendingUsers:     pending,
		ApprovedUsers:    approved,
		UserScores:       GroupByUser(scores),
		CategoryAverages: CategoryAverages(scores),
		Trend:            Trend(allScores, trendDateLayout),
	}, nil
}
