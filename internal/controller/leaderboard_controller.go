package controller

import (
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// GetLeaderboard godoc
// @Summary 排行榜
// @Description 已审批且至少考过一次的学生，平均分降序、场次作平局判定，前10名展示
// @Tags 排行榜
// @Produce  json
// @Param   sort query string false "排序" Enums(average_desc, average_asc, exams_desc, score_desc)
// @Success 200 {object} util.Response{data=service.Leaderboard} "成功"
// @Router /leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	sortKey := ctx.DefaultQuery("sort", "average_desc")
	switch sortKey {
	case "average_desc", "average_asc", "exams_desc", "score_desc":
	default:
		util.BadRequest(ctx, "Unknown sort key.")
		return
	}

	board, err := c.LeaderboardService.GetLeaderboard(sortKey)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, board)
}
