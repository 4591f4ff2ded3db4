package controller

import (
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// RegisterUserRequest bot /start 时的用户注册请求体
// swagger:model RegisterUserRequest
type RegisterUserRequest struct {
	TelegramID   int64  `json:"telegramId" binding:"required"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	LanguageCode string `json:"languageCode"`
}

// RegisterUser godoc
// @Summary 注册/更新 Telegram 用户
// @Description 按 telegram_id 幂等落库，重复调用只刷新资料字段
// @Tags 用户
// @Accept json
// @Produce json
// @Param body body RegisterUserRequest true "Telegram 用户信息"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/users [post]
func (c *UserController) RegisterUser(ctx *gin.Context) {
	var req RegisterUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.RegisterTelegramUser(
		req.TelegramID, req.Username, req.FirstName, req.LastName, req.LanguageCode)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// GetUser godoc
// @Summary 获取用户
// @Tags 用户
// @Produce json
// @Param id path int true "用户 ID"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	user, err := c.UserService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}
