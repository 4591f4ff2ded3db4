package model

import "time"

const (
	MintStatusPending           = "pending"
	MintStatusUploadingImage    = "uploading_image"
	MintStatusUploadingMetadata = "uploading_metadata"
	MintStatusMinting           = "minting"
	MintStatusCompleted         = "completed"
	MintStatusFailed            = "failed"
)

// MintTransaction 一条结果对应至多一行铸造事务，失败后在原行上重试
// swagger:model MintTransaction
type MintTransaction struct {
	BaseModel
	ResultID        uint       `gorm:"uniqueIndex;not null" json:"resultId"`
	UserID          uint       `gorm:"index;not null" json:"userId"`
	PaymentID       *uint      `gorm:"index" json:"paymentId"`
	NFTAddress      string     `gorm:"size:255" json:"nftAddress"`
	TransactionHash string     `gorm:"size:255" json:"transactionHash"`
	IPFSHash        string     `gorm:"size:255" json:"ipfsHash"`
	MetadataURI     string     `gorm:"size:512" json:"metadataUri"`
	Status          string     `gorm:"size:50;default:'pending';not null;index" json:"status"`
	ErrorMessage    string     `gorm:"type:text" json:"errorMessage"`
	RetryCount      int        `gorm:"default:0;not null" json:"retryCount"`
	ConfirmedAt     *time.Time `json:"confirmedAt"`
}

func (MintTransaction) TableName() string {
	return "mint_transactions"
}

// IsTerminal completed 是唯一的成功终态
func (t *MintTransaction) IsTerminal() bool {
	return t.Status == MintStatusCompleted
}

// InProgress 非终态且非失败，表示流水线仍在推进
func (t *MintTransaction) InProgress() bool {
	return t.Status != MintStatusCompleted && t.Status != MintStatusFailed
}
