package service

import (
	"errors"
	"time"

	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// RegisterTelegramUser bot /start 时调用，按 telegram_id 幂等落库，
// 资料字段每次覆盖为最新值
func (s *UserService) RegisterTelegramUser(telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
		LastSeen:     time.Now(),
	}
	if err := s.UserRepo.Upsert(user); err != nil {
		return nil, err
	}

	stored, err := s.UserRepo.FindByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("telegram user registered",
		zap.Int64("telegramId", telegramID),
		zap.Uint("userId", stored.ID))
	return stored, nil
}

func (s *UserService) GetByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByTelegramID(telegramID int64) (*model.User, error) {
	user, err := s.UserRepo.FindByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
