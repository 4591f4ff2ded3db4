package model

import "encoding/json"

// NFTMetadata 铸造完成后生成并上传的元数据快照，一经写入不再修改
// swagger:model NFTMetadata
type NFTMetadata struct {
	BaseModel
	ResultID    uint            `gorm:"uniqueIndex;not null" json:"resultId"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	ImageURL    string          `gorm:"size:512;not null" json:"imageUrl"`
	MetadataURL string          `gorm:"size:512;not null" json:"metadataUrl"`
	Attributes  json.RawMessage `gorm:"type:json;not null" json:"attributes"`
}

func (NFTMetadata) TableName() string {
	return "nft_metadata"
}
