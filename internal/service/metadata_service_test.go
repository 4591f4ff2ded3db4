package service

import (
	"testing"
	"time"

	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadataFixtures() (*model.QuizResult, *model.Quiz, *model.ResultType) {
	completed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	result := &model.QuizResult{
		BaseModel:   model.BaseModel{ID: 42},
		ResultType:  "gryffindor",
		Score:       6,
		CompletedAt: completed,
	}
	quiz := &model.Quiz{Title: "Hogwarts House Quiz"}
	resultType := &model.ResultType{
		TypeKey:     "gryffindor",
		Title:       "Gryffindor",
		Description: "Brave at heart",
	}
	return result, quiz, resultType
}

func TestGenerateMetadata(t *testing.T) {
	result, quiz, resultType := metadataFixtures()
	svc := NewMetadataService(newTestConfig())

	doc := svc.Generate(result, quiz, resultType, 3, "https://gateway.test/ipfs/QmImage")

	assert.Equal(t, "Gryffindor - Hogwarts House Quiz", doc.Name)
	assert.Contains(t, doc.Description, "🎯 Quiz Result NFT")
	assert.Contains(t, doc.Description, "Brave at heart")
	assert.Contains(t, doc.Description, "Score: 6 points")
	assert.Contains(t, doc.Description, "2026-03-15")
	assert.Equal(t, "https://gateway.test/ipfs/QmImage", doc.Image)
	assert.Equal(t, "https://t.me/quiz_nft_bot?start=result_42", doc.ExternalURL)

	traits := map[string]NFTAttribute{}
	for _, a := range doc.Attributes {
		traits[a.TraitType] = a
	}
	assert.Equal(t, "Hogwarts House Quiz", traits["Quiz"].Value)
	assert.Equal(t, "Gryffindor", traits["Result Type"].Value)
	assert.Equal(t, "6", traits["Score"].Value)
	assert.Equal(t, "number", traits["Score"].DisplayType)
	assert.Equal(t, "date", traits["Completion Date"].DisplayType)
	assert.Equal(t, "3", traits["Total Questions"].Value)
}

func TestGenerateMetadataWithoutResultTypeRow(t *testing.T) {
	result, quiz, _ := metadataFixtures()
	svc := NewMetadataService(newTestConfig())

	// 结果类别没有元信息行时退回 type key
	doc := svc.Generate(result, quiz, nil, 3, "ipfs://QmImage")
	assert.Equal(t, "gryffindor - Hogwarts House Quiz", doc.Name)
}

func TestValidateMetadata(t *testing.T) {
	result, quiz, resultType := metadataFixtures()
	svc := NewMetadataService(newTestConfig())

	doc := svc.Generate(result, quiz, resultType, 3, "ipfs://QmImage")
	require.NoError(t, svc.Validate(doc))

	broken := *doc
	broken.Name = ""
	assert.ErrorIs(t, svc.Validate(&broken), util.ErrInvalidMetadata)

	broken = *doc
	broken.Image = "ftp://not-allowed"
	assert.ErrorIs(t, svc.Validate(&broken), util.ErrInvalidMetadata)

	broken = *doc
	broken.Attributes = append([]NFTAttribute{}, doc.Attributes...)
	broken.Attributes[0].TraitType = ""
	assert.ErrorIs(t, svc.Validate(&broken), util.ErrInvalidMetadata)
}
