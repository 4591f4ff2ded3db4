package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	ImageURL    string       `gorm:"size:512" json:"imageUrl"`
	IsActive    bool         `gorm:"default:true" json:"isActive"`
	CreatedBy   uint         `gorm:"index" json:"createdBy"`
	Questions   []Question   `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	ResultTypes []ResultType `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"resultTypes,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	BaseModel
	QuizID     uint     `gorm:"index;not null" json:"quizId"`
	Text       string   `gorm:"type:text;not null" json:"text"`
	OrderIndex int      `gorm:"not null" json:"orderIndex"`
	Answers    []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// Answer 每个选项指向一个结果类别并携带 1-10 的权重
// swagger:model Answer
type Answer struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:512;not null" json:"text"`
	ResultType string `gorm:"size:100;not null" json:"resultType"`
	Weight     int    `gorm:"default:1;not null" json:"weight"`
	OrderIndex int    `gorm:"not null" json:"orderIndex"`
}

func (Answer) TableName() string {
	return "answers"
}

// ResultType 测验的可能结果类别（展示文案与配图）
// swagger:model ResultType
type ResultType struct {
	BaseModel
	QuizID      uint   `gorm:"index;not null" json:"quizId"`
	TypeKey     string `gorm:"size:100;not null" json:"typeKey"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `gorm:"size:512" json:"imageUrl"`
}

func (ResultType) TableName() string {
	return "result_types"
}
