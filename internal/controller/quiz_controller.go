package controller

import (
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// GetQuizzes godoc
// @Summary 获取激活的测验列表
// @Description 返回所有当前可参与的测验
// @Tags 测验
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Quiz} "成功"
// @Router /api/quizzes [get]
func (c *QuizController) GetQuizzes(ctx *gin.Context) {
	quizzes, err := c.QuizService.GetActiveQuizzes()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// GetQuiz godoc
// @Summary 获取测验详情
// @Description 返回测验及其按顺序排列的问题、答案与结果类型
// @Tags 测验
// @Produce json
// @Param id path int true "测验 ID"
// @Success 200 {object} util.Response{data=model.Quiz} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	quiz, err := c.QuizService.GetQuizByID(id)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, quiz)
}

// SubmitRequest 提交答案请求体
// swagger:model SubmitRequest
type SubmitRequest struct {
	UserID    uint   `json:"userId" binding:"required"`
	AnswerIDs []uint `json:"answerIds" binding:"required"`
}

// SubmitAnswers godoc
// @Summary 提交测验答案
// @Description 对答案计分并持久化结果，同一输入永远得到同一结果类别
// @Tags 测验
// @Accept json
// @Produce json
// @Param id path int true "测验 ID"
// @Param body body SubmitRequest true "用户与答案列表"
// @Success 201 {object} util.Response{data=model.QuizResult} "结果已创建"
// @Failure 400 {object} util.Response "答案非法或为空"
// @Failure 404 {object} util.Response "测验不存在"
// @Failure 429 {object} util.Response "当日测验次数已达上限"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) SubmitAnswers(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitAnswers(ctx.Request.Context(), req.UserID, id, req.AnswerIDs)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrEmptyAnswerSet), errors.Is(err, util.ErrInvalidAnswerSet):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrDailyQuizLimit):
			util.TooManyRequests(ctx, "daily quiz limit reached")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, result)
}

// GetUserResults godoc
// @Summary 获取用户的测验结果历史
// @Tags 测验
// @Produce json
// @Param id path int true "用户 ID"
// @Param limit query int false "返回条数，默认 10"
// @Success 200 {object} util.Response{data=[]model.QuizResult} "成功"
// @Router /api/users/{id}/results [get]
func (c *QuizController) GetUserResults(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}
	limit := util.ParseLimit(ctx.Query("limit"), 10, 100)

	results, err := c.QuizService.GetUserResults(id, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}
