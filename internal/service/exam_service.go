package service

import (
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/questionbank"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/monitoring"
	"time"

	"gorm.io/gorm"
)

type ExamService struct {
	Bank      *questionbank.Bank
	ScoreRepo *repository.ScoreRepository
	UserRepo  *repository.UserRepository
}

func NewExamService(bank *questionbank.Bank, scoreRepo *repository.ScoreRepository, userRepo *repository.UserRepository) *ExamService {
	return &ExamService{
		Bank:      bank,
		ScoreRepo: scoreRepo,
		UserRepo:  userRepo,
	}
}

// ScoreExam 纯打分：answers 以1开始的题号映射到提交的选项标识。
// 每题标识完全一致得1分，无部分得分、无倒扣。结果落在 [0, 题数]。
func ScoreExam(questions []questionbank.Question, answers map[int]string) (int, error) {
	if len(questions) == 0 {
		return 0, util.ErrInvalidCategory
	}

	for i := 1; i <= len(questions); i++ {
		if _, ok := answers[i]; !ok {
			return 0, util.ErrIncompleteSubmission
		}
	}

	score := 0
	for i, q := range questions {
		if answers[i+1] == q.Answer {
			score++
		}
	}
	return score, nil
}

// SubmitExam 固定结构的提交：按题目顺序给出的选项标识列表。
// 校验分类与答案数量，打分后立即落一条账本记录。
func (s *ExamService) SubmitExam(userID uint, category string, orderedAnswers []string) (*model.Score, error) {
	questions := s.Bank.Questions(category)
	if len(questions) == 0 {
		return nil, util.ErrInvalidCategory
	}
	if len(orderedAnswers) != len(questions) {
		return nil, util.ErrIncompleteSubmission
	}

	answers := make(map[int]string, len(orderedAnswers))
	for i, label := range orderedAnswers {
		if label == "" {
			return nil, util.ErrIncompleteSubmission
		}
		answers[i+1] = label
	}

	score, err := ScoreExam(questions, answers)
	if err != nil {
		return nil, err
	}

	if _, err := s.UserRepo.FindByID(userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUnknownUser
		}
		return nil, err
	}

	record := &model.Score{
		UserID:   userID,
		Category: category,
		Score:    score,
		TakenAt:  time.Now().UTC(),
	}
	if err := s.ScoreRepo.Create(record); err != nil {
		return nil, err
	}

	monitoring.ExamSubmissions.WithLabelValues(category).Inc()
	return record, nil
}
