package controller

import (
	"errors"
	"exam_portal_backend/internal/service"
	"exam_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService      *service.UserService
	AuthService      *service.AuthService
	DashboardService *service.DashboardService
}

func NewUserController(userService *service.UserService, authService *service.AuthService, dashboardService *service.DashboardService) *UserController {
	return &UserController{
		UserService:      userService,
		AuthService:      authService,
		DashboardService: dashboardService,
	}
}

// GetProfile godoc
// @Summary 个人主页
// @Description 用户信息加成绩面板（总分、场次、评语、走势图、分类平均分）
// @Tags 用户
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 401 {object} util.Response "未登录"
// @Router /profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.DashboardService.GetProfileDashboard(user.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"user":      user,
		"dashboard": dashboard,
	})
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=2,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// UpdateProfile godoc
// @Summary 修改个人资料
// @Description 修改用户名/邮箱
// @Tags 用户
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 409 {object} util.Response "用户名或邮箱已被占用"
// @Router /profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(claims.UserID, req.Username, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUsernameTaken):
			util.Error(ctx, 409, "该用户名已被占用")
		case errors.Is(err, util.ErrEmailRegistered):
			util.Error(ctx, 409, "该邮箱已被注册")
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Description 头像存入对象存储，路径稳定，重传覆盖；失败时保留原头像
// @Tags 用户
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "图片文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "缺少文件"
// @Failure 502 {object} util.Response "上传失败"
// @Router /profile/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	url, err := c.UserService.UploadAvatar(ctx.Request.Context(), user, file)
	if err != nil {
		if errors.Is(err, util.ErrUploadFailed) {
			util.Error(ctx, 502, "Upload failed, previous picture kept. Try again later.")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url, "message": "Profile picture updated!"})
}
