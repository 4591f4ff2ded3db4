package controller

import (
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	PaymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{PaymentService: paymentService}
}

// CreatePaymentRequest 发起铸造支付请求体
// swagger:model CreatePaymentRequest
type CreatePaymentRequest struct {
	UserID   uint   `json:"userId" binding:"required"`
	ResultID uint   `json:"resultId" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

// CreatePaymentResponse 支付记录及 Stars 发票（仅 telegram_stars 提供方）
// swagger:model CreatePaymentResponse
type CreatePaymentResponse struct {
	Payment *model.Payment        `json:"payment"`
	Invoice *service.StarsInvoice `json:"invoice,omitempty"`
}

// CreatePayment godoc
// @Summary 发起铸造支付
// @Description 为测验结果创建支付记录；同一结果已有活跃支付时返回既有记录
// @Tags 支付
// @Accept json
// @Produce json
// @Param body body CreatePaymentRequest true "支付请求"
// @Success 201 {object} util.Response{data=CreatePaymentResponse} "支付已创建或已存在"
// @Failure 400 {object} util.Response "提供方非法或未启用"
// @Failure 404 {object} util.Response "结果不存在"
// @Failure 409 {object} util.Response "结果已铸造"
// @Failure 429 {object} util.Response "当日铸造次数已达上限"
// @Router /api/nft/payments [post]
func (c *PaymentController) CreatePayment(ctx *gin.Context) {
	var req CreatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	payment, err := c.PaymentService.CreateMintPayment(ctx.Request.Context(), req.UserID, req.ResultID, req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidProvider), errors.Is(err, util.ErrProviderDisabled):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrResultNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrResultNotOwned):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrAlreadyMinted):
			util.Conflict(ctx, "NFT already minted for this result")
		case errors.Is(err, util.ErrDailyMintLimit):
			util.TooManyRequests(ctx, "daily mint limit reached")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	resp := CreatePaymentResponse{Payment: payment}
	if payment.Currency == "STARS" {
		invoice, err := c.PaymentService.BuildStarsInvoice(payment, "Quiz Result NFT", "Mint your quiz result as an NFT")
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp.Invoice = invoice
	}
	util.Created(ctx, resp)
}

// PreCheckoutRequest 扣款前校验 webhook 请求体
type PreCheckoutRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// PreCheckout godoc
// @Summary 扣款前校验
// @Description 支付提供方扣款前回调，校验支付与结果状态
// @Tags 支付
// @Accept json
// @Produce json
// @Param body body PreCheckoutRequest true "发票 payload"
// @Success 200 {object} util.Response{data=object} "ok 与拒绝原因"
// @Router /api/nft/payments/pre-checkout [post]
func (c *PaymentController) PreCheckout(ctx *gin.Context) {
	var req PreCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ok, reason := c.PaymentService.HandlePreCheckout(req.Payload)
	util.Success(ctx, gin.H{"ok": ok, "reason": reason})
}

// ConfirmPaymentRequest 支付成功 webhook 请求体
type ConfirmPaymentRequest struct {
	Payload          string `json:"payload" binding:"required"`
	TelegramChargeID string `json:"telegramChargeId"`
	ProviderChargeID string `json:"providerChargeId"`
}

// ConfirmPayment godoc
// @Summary 确认支付成功
// @Description 提供方成功回调，至少一次投递，重复回调幂等
// @Tags 支付
// @Accept json
// @Produce json
// @Param body body ConfirmPaymentRequest true "回调数据"
// @Success 200 {object} util.Response{data=model.Payment} "成功"
// @Failure 400 {object} util.Response "payload 非法"
// @Failure 404 {object} util.Response "支付不存在"
// @Router /api/nft/payments/confirm [post]
func (c *PaymentController) ConfirmPayment(ctx *gin.Context) {
	var req ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	payment, err := c.PaymentService.ConfirmPayment(req.Payload, req.TelegramChargeID, req.ProviderChargeID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMalformedPayload):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrPaymentNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, payment)
}

// RefundPayment godoc
// @Summary 退款
// @Description 管理端退款，仅允许 paid 状态的支付
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "支付 ID"
// @Success 200 {object} util.Response{data=model.Payment} "成功"
// @Failure 404 {object} util.Response "支付不存在"
// @Failure 409 {object} util.Response "状态不允许退款"
// @Router /api/admin/payments/{id}/refund [post]
func (c *PaymentController) RefundPayment(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid payment id")
		return
	}

	payment, err := c.PaymentService.RefundPayment(id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrPaymentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidStateTransition):
			util.Conflict(ctx, "only paid payments can be refunded")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, payment)
}

// GetUserPayments godoc
// @Summary 获取用户支付记录
// @Tags 支付
// @Produce json
// @Param id path int true "用户 ID"
// @Param status query string false "按状态过滤"
// @Success 200 {object} util.Response{data=[]model.Payment} "成功"
// @Router /api/users/{id}/payments [get]
func (c *PaymentController) GetUserPayments(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	payments, err := c.PaymentService.GetUserPayments(id, ctx.Query("status"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, payments)
}
