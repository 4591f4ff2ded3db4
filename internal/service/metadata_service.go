package service

import (
	"fmt"
	"strings"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
)

// NFTAttribute TON NFT 标准的 trait 条目
type NFTAttribute struct {
	TraitType   string `json:"trait_type"`
	Value       string `json:"value"`
	DisplayType string `json:"display_type,omitempty"`
}

// NFTMetadataDoc 上传到内容存储的元数据文档
type NFTMetadataDoc struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes"`
	ExternalURL string         `json:"external_url,omitempty"`
}

// MetadataService 按 TON NFT 标准生成并校验元数据文档
type MetadataService struct {
	botName string
}

func NewMetadataService(cfg *config.Config) *MetadataService {
	return &MetadataService{botName: cfg.Telegram.BotName}
}

// Generate 由结果与测验拼装元数据：名称、含类别/分数/完成日期的描述、trait 列表
func (s *MetadataService) Generate(result *model.QuizResult, quiz *model.Quiz, resultType *model.ResultType, questionCount int, imageURL string) *NFTMetadataDoc {
	resultTitle := result.ResultType
	resultDescription := "Your quiz result"
	if resultType != nil {
		resultTitle = resultType.Title
		resultDescription = resultType.Description
	}

	completedDate := result.CompletedAt.Format(util.DateFormat)

	doc := &NFTMetadataDoc{
		Name: fmt.Sprintf("%s - %s", resultTitle, quiz.Title),
		Description: fmt.Sprintf(
			"🎯 Quiz Result NFT\n\n%s\n\nQuiz: %s\nScore: %d points\nCompleted: %s",
			resultDescription, quiz.Title, result.Score, completedDate,
		),
		Image: imageURL,
		Attributes: []NFTAttribute{
			{TraitType: "Quiz", Value: quiz.Title},
			{TraitType: "Result Type", Value: resultTitle},
			{TraitType: "Score", Value: fmt.Sprintf("%d", result.Score), DisplayType: "number"},
			{TraitType: "Completion Date", Value: completedDate, DisplayType: "date"},
			{TraitType: "Total Questions", Value: fmt.Sprintf("%d", questionCount), DisplayType: "number"},
		},
	}

	if s.botName != "" {
		doc.ExternalURL = fmt.Sprintf("https://t.me/%s?start=result_%d", s.botName, result.ID)
	}

	logger.Log.Info("generated nft metadata",
		zap.Uint("resultId", result.ID),
		zap.String("name", doc.Name))
	return doc
}

// Validate 必填字段齐全、图片 URI 使用许可的 scheme，否则 ErrInvalidMetadata
func (s *MetadataService) Validate(doc *NFTMetadataDoc) error {
	if doc.Name == "" {
		return fmt.Errorf("%w: name is required", util.ErrInvalidMetadata)
	}
	if doc.Description == "" {
		return fmt.Errorf("%w: description is required", util.ErrInvalidMetadata)
	}
	if doc.Image == "" {
		return fmt.Errorf("%w: image is required", util.ErrInvalidMetadata)
	}
	if !strings.HasPrefix(doc.Image, "ipfs://") && !strings.HasPrefix(doc.Image, "https://") {
		return fmt.Errorf("%w: image uri scheme not allowed: %s", util.ErrInvalidMetadata, doc.Image)
	}
	for _, attr := range doc.Attributes {
		if attr.TraitType == "" || attr.Value == "" {
			return fmt.Errorf("%w: attribute missing trait_type or value", util.ErrInvalidMetadata)
		}
	}
	return nil
}
