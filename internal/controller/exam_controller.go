package controller

import (
	"errors"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/questionbank"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"
	"fmt"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
	Cfg         *config.Config
}

func NewExamController(examService *service.ExamService, cfg *config.Config) *ExamController {
	return &ExamController{
		ExamService: examService,
		Cfg:         cfg,
	}
}

// 下发给考生的题目，不带正确答案
type examQuestionView struct {
	Number  int                   `json:"number"`
	Prompt  string                `json:"prompt"`
	Options []questionbank.Option `json:"options"`
}

// GetExam godoc
// @Summary 获取试卷
// @Description 按分类下发题目（不含答案）；倒计时仅供前端展示，服务端不强制
// @Tags 考试
// @Produce  json
// @Security ApiKeyAuth
// @Param   category path string true "分类"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "分类无效"
// @Router /exam/{category} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	category := ctx.Param("category")
	if !c.ExamService.Bank.Has(category) {
		util.BadRequest(ctx, "Invalid category or access denied.")
		return
	}

	questions := c.ExamService.Bank.Questions(category)
	views := make([]examQuestionView, len(questions))
	for i, q := range questions {
		views[i] = examQuestionView{
			Number:  i + 1,
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}

	util.Success(ctx, gin.H{
		"category":         category,
		"numQuestions":     len(questions),
		"totalTimeSeconds": len(questions) * c.Cfg.Questions.SecondsPer,
		"questions":        views,
	})
}

// swagger:model SubmitExamRequest
type SubmitExamRequest struct {
	// 按题目顺序排列的选项标识，长度必须等于题数
	Answers []string `json:"answers" binding:"required"`
}

// SubmitExam godoc
// @Summary 提交答卷
// @Description 打分并追加一条成绩记录；每题必答，无部分得分
// @Tags 考试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   category path string true "分类"
// @Param   body body SubmitExamRequest true "答案"
// @Success 201 {object} util.Response{data=object} "成绩"
// @Failure 400 {object} util.Response "分类无效或答卷不完整"
// @Router /exam/{category} [post]
func (c *ExamController) SubmitExam(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	category := ctx.Param("category")
	record, err := c.ExamService.SubmitExam(claims.UserID, category, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidCategory):
			util.BadRequest(ctx, "Invalid category or access denied.")
		case errors.Is(err, util.ErrIncompleteSubmission):
			util.BadRequest(ctx, "All questions must be answered.")
		case errors.Is(err, util.ErrUnknownUser):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	numQuestions := len(c.ExamService.Bank.Questions(category))
	util.Created(ctx, gin.H{
		"score":        record.Score,
		"numQuestions": numQuestions,
		"takenAt":      record.TakenAt,
		"message":      fmt.Sprintf("You scored %d/%d!", record.Score, numQuestions),
	})
}
