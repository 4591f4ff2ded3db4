package model

import (
	"encoding/json"
	"time"
)

// QuizResult 存储用户完成测验后的结果快照
// NFTMinted 为真当且仅当存在已完成的 MintTransaction
// swagger:model QuizResult
type QuizResult struct {
	BaseModel
	UserID      uint            `gorm:"index;not null" json:"userId"`
	QuizID      uint            `gorm:"index;not null" json:"quizId"`
	AnswersData json.RawMessage `gorm:"type:json;not null" json:"answersData"`
	ResultType  string          `gorm:"size:100;not null" json:"resultType"`
	Score       int             `gorm:"not null" json:"score"`
	NFTMinted   bool            `gorm:"default:false;not null" json:"nftMinted"`
	NFTAddress  string          `gorm:"size:255" json:"nftAddress"`
	CompletedAt time.Time       `gorm:"not null" json:"completedAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
