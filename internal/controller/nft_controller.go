package controller

import (
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type NFTController struct {
	NFTService *service.NFTService
}

func NewNFTController(nftService *service.NFTService) *NFTController {
	return &NFTController{NFTService: nftService}
}

// MintRequest 启动铸造请求体
// swagger:model MintRequest
type MintRequest struct {
	UserID   uint `json:"userId" binding:"required"`
	ResultID uint `json:"resultId" binding:"required"`
}

func mintErrorResponse(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrResultNotFound), errors.Is(err, util.ErrMintNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrResultNotOwned):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrPaymentRequired):
		util.PaymentRequired(ctx, "payment required before minting")
	case errors.Is(err, util.ErrAlreadyMinted):
		util.Conflict(ctx, "NFT already minted for this result")
	case errors.Is(err, util.ErrMintInProgress):
		util.Conflict(ctx, "mint already in progress")
	case errors.Is(err, util.ErrMintNotFailed):
		util.Conflict(ctx, "mint is not in failed state")
	case errors.Is(err, util.ErrRetryBudgetExhausted):
		util.Conflict(ctx, "retry budget exhausted")
	default:
		util.LogInternalError(ctx, err)
	}
}

// StartMint godoc
// @Summary 启动 NFT 铸造
// @Description 为已支付的测验结果执行铸造流水线，失败的事务会转入重试路径
// @Tags NFT
// @Accept json
// @Produce json
// @Param body body MintRequest true "铸造请求"
// @Success 200 {object} util.Response{data=model.MintTransaction} "铸造完成"
// @Failure 402 {object} util.Response "尚未支付"
// @Failure 404 {object} util.Response "结果不存在"
// @Failure 409 {object} util.Response "已铸造 / 进行中 / 重试预算用尽"
// @Failure 500 {object} util.Response "流水线失败，事务置为 failed"
// @Router /api/nft/mint [post]
func (c *NFTController) StartMint(ctx *gin.Context) {
	var req MintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mintTx, err := c.NFTService.StartMint(ctx.Request.Context(), req.UserID, req.ResultID)
	if err != nil {
		// 流水线中途失败时事务已带状态与错误文本，原样返回给调用方
		if mintTx != nil {
			util.Error(ctx, 500, mintTx.ErrorMessage)
			return
		}
		mintErrorResponse(ctx, err)
		return
	}
	util.Success(ctx, mintTx)
}

// RetryMint godoc
// @Summary 重试失败的铸造
// @Description 仅 failed 状态可重试，流水线从第一步重新执行
// @Tags NFT
// @Accept json
// @Produce json
// @Param id path int true "结果 ID"
// @Param body body MintRequest true "铸造请求"
// @Success 200 {object} util.Response{data=model.MintTransaction} "铸造完成"
// @Failure 404 {object} util.Response "铸造事务不存在"
// @Failure 409 {object} util.Response "状态不可重试或预算用尽"
// @Router /api/nft/mint/{id}/retry [post]
func (c *NFTController) RetryMint(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid result id")
		return
	}

	var req struct {
		UserID uint `json:"userId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mintTx, err := c.NFTService.RetryMint(ctx.Request.Context(), req.UserID, id)
	if err != nil {
		if mintTx != nil {
			util.Error(ctx, 500, mintTx.ErrorMessage)
			return
		}
		mintErrorResponse(ctx, err)
		return
	}
	util.Success(ctx, mintTx)
}

// GetMintStatus godoc
// @Summary 查询铸造状态
// @Tags NFT
// @Produce json
// @Param id path int true "结果 ID"
// @Success 200 {object} util.Response{data=model.MintTransaction} "成功"
// @Failure 404 {object} util.Response "铸造事务不存在"
// @Router /api/nft/mint/{id} [get]
func (c *NFTController) GetMintStatus(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid result id")
		return
	}

	mintTx, err := c.NFTService.GetMintStatus(id)
	if err != nil {
		mintErrorResponse(ctx, err)
		return
	}
	util.Success(ctx, mintTx)
}

// GetMetadata godoc
// @Summary 查询元数据快照
// @Tags NFT
// @Produce json
// @Param id path int true "结果 ID"
// @Success 200 {object} util.Response{data=model.NFTMetadata} "成功"
// @Failure 404 {object} util.Response "元数据不存在"
// @Router /api/nft/metadata/{id} [get]
func (c *NFTController) GetMetadata(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid result id")
		return
	}

	meta, err := c.NFTService.GetMetadataByResult(id)
	if err != nil {
		mintErrorResponse(ctx, err)
		return
	}
	util.Success(ctx, meta)
}

// GetUserNFTs godoc
// @Summary 获取用户已铸造的 NFT 列表
// @Tags NFT
// @Produce json
// @Param id path int true "用户 ID"
// @Success 200 {object} util.Response{data=[]model.MintTransaction} "成功"
// @Router /api/users/{id}/nfts [get]
func (c *NFTController) GetUserNFTs(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	nfts, err := c.NFTService.GetUserNFTs(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nfts)
}
