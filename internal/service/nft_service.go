package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"
	"quiz_nft_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtifactStore NFT 流水线依赖的内容寻址存储口
type ArtifactStore interface {
	UploadImage(ctx context.Context, data []byte, filename string) (string, error)
	UploadJSON(ctx context.Context, document interface{}, name string) (string, error)
	ResolveURL(cid string) string
	Unpin(ctx context.Context, cid string)
}

// NFTService 铸造编排器：图片 → 元数据 → 链上铸造，
// 每一步独立落库，任一步失败整条事务置为 failed 并可显式重试
type NFTService struct {
	MintRepo    *repository.MintRepository
	ResultRepo  *repository.ResultRepository
	QuizRepo    *repository.QuizRepository
	UserRepo    *repository.UserRepository
	PaymentRepo *repository.PaymentRepository
	Storage     ArtifactStore
	Images      *ImageService
	Metadata    *MetadataService
	Wallet      WalletCapability
	Notifier    Notifier
	Config      *config.Config
}

func NewNFTService(
	mintRepo *repository.MintRepository,
	resultRepo *repository.ResultRepository,
	quizRepo *repository.QuizRepository,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	storage ArtifactStore,
	images *ImageService,
	metadata *MetadataService,
	wallet WalletCapability,
	notifier Notifier,
	cfg *config.Config,
) *NFTService {
	return &NFTService{
		MintRepo:    mintRepo,
		ResultRepo:  resultRepo,
		QuizRepo:    quizRepo,
		UserRepo:    userRepo,
		PaymentRepo: paymentRepo,
		Storage:     storage,
		Images:      images,
		Metadata:    metadata,
		Wallet:      wallet,
		Notifier:    notifier,
		Config:      cfg,
	}
}

// StartMint 为已支付的结果启动铸造。没有事务行就新建一条；
// 上次失败的行走重试路径；completed / 进行中分别拒绝
func (s *NFTService) StartMint(ctx context.Context, userID, resultID uint) (*model.MintTransaction, error) {
	result, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	if result.UserID != userID {
		return nil, util.ErrResultNotOwned
	}
	if result.NFTMinted {
		return nil, util.ErrAlreadyMinted
	}

	payment, err := s.PaymentRepo.FindActiveByResult(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPaymentRequired
		}
		return nil, err
	}
	if payment.Status != model.PaymentStatusPaid {
		return nil, util.ErrPaymentRequired
	}

	mintTx, err := s.MintRepo.FindByResult(resultID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		mintTx = &model.MintTransaction{
			ResultID:  resultID,
			UserID:    userID,
			PaymentID: &payment.ID,
			Status:    model.MintStatusPending,
		}
		if err := s.MintRepo.Create(mintTx); err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, util.ErrMintInProgress
			}
			return nil, err
		}
	} else {
		switch {
		case mintTx.Status == model.MintStatusCompleted:
			return nil, util.ErrAlreadyMinted
		case mintTx.Status == model.MintStatusFailed:
			return s.RetryMint(ctx, userID, resultID)
		default:
			return nil, util.ErrMintInProgress
		}
	}

	if err := s.runPipeline(ctx, mintTx, result); err != nil {
		return mintTx, err
	}
	return mintTx, nil
}

// RetryMint 只重试 failed 事务，重试预算用尽后拒绝
func (s *NFTService) RetryMint(ctx context.Context, userID, resultID uint) (*model.MintTransaction, error) {
	mintTx, err := s.MintRepo.FindByResult(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMintNotFound
		}
		return nil, err
	}
	if mintTx.UserID != userID {
		return nil, util.ErrResultNotOwned
	}
	if mintTx.Status != model.MintStatusFailed {
		if mintTx.Status == model.MintStatusCompleted {
			return nil, util.ErrAlreadyMinted
		}
		return nil, util.ErrMintNotFailed
	}
	if mintTx.RetryCount >= s.Config.NFT.MaxRetries {
		return nil, util.ErrRetryBudgetExhausted
	}

	result, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		return nil, err
	}

	if err := s.MintRepo.ResetForRetry(mintTx); err != nil {
		return nil, err
	}
	logger.Log.Info("retrying mint",
		zap.Uint("resultId", resultID),
		zap.Int("attempt", mintTx.RetryCount))

	if err := s.runPipeline(ctx, mintTx, result); err != nil {
		return mintTx, err
	}
	return mintTx, nil
}

// runPipeline 依次执行各步骤，每步带独立超时并更新事务状态。
// 重试总是从第一步重新开始，上传幂等由内容寻址保证
func (s *NFTService) runPipeline(ctx context.Context, mintTx *model.MintTransaction, result *model.QuizResult) error {
	var pinned []string
	err := s.execute(ctx, mintTx, result, &pinned)
	if err != nil {
		if ferr := s.MintRepo.MarkFailed(mintTx, err.Error()); ferr != nil {
			logger.Log.Error("failed to persist mint failure", zap.Error(ferr))
		}
		// 失败后孤儿产物不再被任何元数据引用，尽力回收；
		// 重试会重新上传同样的内容寻址产物
		for _, cid := range pinned {
			s.Storage.Unpin(context.Background(), cid)
		}
		monitoring.MintCounter.WithLabelValues("failed").Inc()
		logger.Log.Error("mint pipeline failed",
			zap.Uint("resultId", result.ID),
			zap.Error(err))
		s.notify(ctx, mintTx, result, err)
		return err
	}

	monitoring.MintCounter.WithLabelValues("success").Inc()
	logger.Log.Info("mint pipeline completed",
		zap.Uint("resultId", result.ID),
		zap.String("nftAddress", mintTx.NFTAddress))
	s.notify(ctx, mintTx, result, nil)
	return nil
}

func (s *NFTService) execute(ctx context.Context, mintTx *model.MintTransaction, result *model.QuizResult, pinned *[]string) error {
	quiz, err := s.QuizRepo.FindByIDWithQuestions(result.QuizID)
	if err != nil {
		return fmt.Errorf("load quiz: %w", err)
	}
	resultType, err := s.QuizRepo.FindResultType(result.QuizID, result.ResultType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load result type: %w", err)
	}
	questionCount := len(quiz.Questions)

	// 步骤 1：生成并优化图片
	var imageData []byte
	if err := s.step("generate_image", func(stepCtx context.Context) error {
		raw, err := s.Images.GeneratePlaceholder(result.ResultType)
		if err != nil {
			return err
		}
		imageData = s.Images.Optimize(raw)
		return nil
	}); err != nil {
		return fmt.Errorf("generate image: %w", err)
	}

	// 步骤 2：上传图片
	if err := s.MintRepo.UpdateStatus(mintTx, model.MintStatusUploadingImage); err != nil {
		return err
	}
	var imageCID string
	if err := s.step("upload_image", func(stepCtx context.Context) error {
		cid, err := s.Storage.UploadImage(stepCtx, imageData, fmt.Sprintf("result_%d.png", result.ID))
		if err != nil {
			return err
		}
		imageCID = cid
		return nil
	}); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	*pinned = append(*pinned, imageCID)
	imageURL := s.Storage.ResolveURL(imageCID)

	// 步骤 3：生成、校验并上传元数据
	if err := s.MintRepo.UpdateStatus(mintTx, model.MintStatusUploadingMetadata); err != nil {
		return err
	}
	doc := s.Metadata.Generate(result, quiz, resultType, questionCount, imageURL)
	if err := s.Metadata.Validate(doc); err != nil {
		return err
	}
	var metadataCID string
	if err := s.step("upload_metadata", func(stepCtx context.Context) error {
		cid, err := s.Storage.UploadJSON(stepCtx, doc, fmt.Sprintf("result_%d_metadata.json", result.ID))
		if err != nil {
			return err
		}
		metadataCID = cid
		return nil
	}); err != nil {
		return fmt.Errorf("upload metadata: %w", err)
	}
	*pinned = append(*pinned, metadataCID)
	metadataURI := s.Storage.ResolveURL(metadataCID)

	attrs, err := json.Marshal(doc.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	if _, err := s.MintRepo.SaveMetadata(&model.NFTMetadata{
		ResultID:    result.ID,
		Name:        doc.Name,
		Description: doc.Description,
		ImageURL:    imageURL,
		MetadataURL: metadataURI,
		Attributes:  attrs,
	}); err != nil {
		return fmt.Errorf("save metadata snapshot: %w", err)
	}

	// 步骤 4：钱包体检 + 链上铸造
	if err := s.MintRepo.UpdateStatus(mintTx, model.MintStatusMinting); err != nil {
		return err
	}
	var nftAddress, txHash string
	if err := s.step("mint", func(stepCtx context.Context) error {
		health, err := s.Wallet.Health(stepCtx)
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrWalletUnhealthy, err)
		}
		if !health.Healthy {
			return fmt.Errorf("%w: balance %.4f TON, status %s",
				util.ErrWalletUnhealthy, health.BalanceTON, health.Status)
		}

		addr, hash, err := s.Wallet.Mint(stepCtx, metadataURI, strconv.FormatUint(uint64(result.UserID), 10))
		if err != nil {
			return err
		}
		nftAddress, txHash = addr, hash
		return nil
	}); err != nil {
		return err
	}

	return s.MintRepo.Complete(mintTx, nftAddress, txHash, imageCID, metadataURI)
}

func (s *NFTService) step(name string, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(context.Background(), s.Config.NFT.StepTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)
	monitoring.MintStepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (s *NFTService) notify(ctx context.Context, mintTx *model.MintTransaction, result *model.QuizResult, pipelineErr error) {
	if s.Notifier == nil {
		return
	}
	user, err := s.UserRepo.FindByID(result.UserID)
	if err != nil {
		logger.Log.Warn("cannot notify, user not found", zap.Uint("userId", result.UserID))
		return
	}
	if pipelineErr != nil {
		s.Notifier.MintFailed(ctx, user.TelegramID, result.ID, pipelineErr.Error())
		return
	}
	s.Notifier.MintSucceeded(ctx, user.TelegramID, result.ID, mintTx.NFTAddress, mintTx.TransactionHash)
}

// GetMintStatus 查询结果当前的铸造事务
func (s *NFTService) GetMintStatus(resultID uint) (*model.MintTransaction, error) {
	mintTx, err := s.MintRepo.FindByResult(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMintNotFound
		}
		return nil, err
	}
	return mintTx, nil
}

// GetUserNFTs 用户已完成的铸造列表
func (s *NFTService) GetUserNFTs(userID uint) ([]model.MintTransaction, error) {
	return s.MintRepo.FindCompletedByUser(userID)
}

// GetMetadataByResult 元数据快照，铸造完成后对外可查
func (s *NFTService) GetMetadataByResult(resultID uint) (*model.NFTMetadata, error) {
	meta, err := s.MintRepo.FindMetadataByResult(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMintNotFound
		}
		return nil, err
	}
	return meta, nil
}
