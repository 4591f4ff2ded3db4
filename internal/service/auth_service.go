package service

import (
	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理端登录，凭据来自配置（单管理员模型）
type AuthService struct {
	Config *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{Config: cfg}
}

// AdminLogin 用户名 + bcrypt 口令校验，通过后签发带管理员标记的 JWT
func (s *AuthService) AdminLogin(username, password string) (string, error) {
	if username != s.Config.JWT.AdminUser {
		return "", util.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.Config.JWT.AdminPasswordHash), []byte(password)); err != nil {
		logger.Log.Warn("admin login rejected", zap.String("username", username))
		return "", util.ErrInvalidCredential
	}

	token, err := util.GenerateJWT(0, username, true, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return "", err
	}
	logger.Log.Info("admin login succeeded", zap.String("username", username))
	return token, nil
}
