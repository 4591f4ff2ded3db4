package controller

import (
	"quiz_nft_backend/internal/service"
	"quiz_nft_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB     *gorm.DB
	Wallet service.WalletCapability
}

func NewHealthController(db *gorm.DB, wallet service.WalletCapability) *HealthController {
	return &HealthController{DB: db, Wallet: wallet}
}

// @Summary 健康检查
// @Description 检查服务状态（数据库 + 铸造钱包）
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}

	// 钱包体检失败不拉垮整体健康，只在响应里标注
	if c.Wallet != nil {
		if health, err := c.Wallet.Health(ctx.Request.Context()); err != nil {
			components["wallet"] = "unreachable"
		} else if health.Healthy {
			components["wallet"] = "up"
		} else {
			components["wallet"] = "degraded"
		}
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
