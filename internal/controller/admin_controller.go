package controller

import (
	"errors"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

// GetDashboard godoc
// @Summary 管理面板
// @Description 待审批用户、已审批学生及其成绩、分类平均分、全站成绩走势
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.AdminDashboard} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /admin [get]
func (c *AdminController) GetDashboard(ctx *gin.Context) {
	dashboard, err := c.AdminService.GetDashboard()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, dashboard)
}

// swagger:model AdminActionRequest
type AdminActionRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// Act godoc
// @Summary 审批操作
// @Description approve 放行待审批学生；reject 删除学生及其全部成绩（单事务）。
// @Description 目标不存在、是管理员或状态不符时返回 400，不做任何变更。
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body AdminActionRequest true "操作"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "目标无效"
// @Router /admin [post]
func (c *AdminController) Act(ctx *gin.Context) {
	var req AdminActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var err error
	message := ""
	switch req.Action {
	case "approve":
		err = c.AdminService.Approve(req.UserID)
		message = "User approved!"
	case "reject":
		err = c.AdminService.Reject(req.UserID)
		message = "User rejected and removed."
	}

	if err != nil {
		if errors.Is(err, util.ErrInvalidTarget) {
			util.BadRequest(ctx, "Invalid target user.")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": message})
}
