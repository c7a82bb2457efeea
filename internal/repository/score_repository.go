package repository

import (
	"exam_portal_backend/internal/model"

	"gorm.io/gorm"
)

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

func (r *ScoreRepository) Create(score *model.Score) error {
	return r.DB.Create(score).Error
}

func (r *ScoreRepository) FindByUserID(userID uint) ([]model.Score, error) {
	var scores []model.Score
	err := r.DB.Where("user_id = ?", userID).
		Order("taken_at ASC").
		Find(&scores).Error
	return scores, err
}

// FindByUserIDs 批量查询，按时间升序，避免逐用户发起查询
func (r *ScoreRepository) FindByUserIDs(userIDs []uint) ([]model.Score, error) {
	var scores []model.Score
	if len(userIDs) == 0 {
		return scores, nil
	}
	err := r.DB.Where("user_id IN ?", userIDs).
		Order("taken_at ASC").
		Find(&scores).Error
	return scores, err
}

// FindForApprovedStudents 全站成绩走势用：已审批学生的全部成绩，按时间升序
func (r *ScoreRepository) FindForApprovedStudents() ([]model.Score, error) {
	var scores []model.Score
	err := r.DB.
		Joins("JOIN users ON users.id = scores.user_id").
		Where("users.role = ? AND users.approved = ?", model.Student, true).
		Order("scores.taken_at ASC").
		Find(&scores).Error
	return scores, err
}
