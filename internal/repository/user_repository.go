package repository

import (
	"exam_portal_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateProfilePic(userID uint, url string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("profile_pic", url).
		Error
}

func (r *UserRepository) FindPendingStudents() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("role = ? AND approved = ?", model.Student, false).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) FindApprovedStudents() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("role = ? AND approved = ?", model.Student, true).
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// Approve 条件更新，避免与并发的 reject 竞争时静默覆盖。
// 返回实际更新的行数：0 表示目标不存在、不是学生、或已经审批过。
func (r *UserRepository) Approve(userID uint) (int64, error) {
	res := r.DB.Model(&model.User{}).
		Where("id = ? AND role = ? AND approved = ?", userID, model.Student, false).
		Update("approved", true)
	return res.RowsAffected, res.Error
}

// DeleteStudentCascade 删除学生及其全部成绩，单事务，两者要么都删要么都不删。
// 只作用于学生行；目标不是学生时返回 0 行。
func (r *UserRepository) DeleteStudentCascade(userID uint) (int64, error) {
	var affected int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("id = ? AND role = ?", userID, model.Student).
			Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Unscoped().
			Where("user_id = ?", userID).
			Delete(&model.Score{}).Error
	})
	return affected, err
}
