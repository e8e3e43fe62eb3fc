package model

// CertificateMetadata 上传到 IPFS 的证书元数据
type CertificateMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image,omitempty"`
	CourseID    string              `json:"courseId,omitempty"`
	CourseTitle string              `json:"courseTitle,omitempty"`
	StudentName string              `json:"studentName,omitempty"`
	IssuedAt    string              `json:"issuedAt,omitempty"`
	Attributes  []MetadataAttribute `json:"attributes,omitempty"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MintResult NFT 铸造结果，Pending 为 true 时 TransactionHash 为占位值
type MintResult struct {
	TokenID         string `json:"tokenId"`
	CollectionID    string `json:"collectionId"`
	TransactionHash string `json:"transactionHash"`
	MetadataURL     string `json:"metadataUrl,omitempty"`
	Pending         bool   `json:"pending"`
}

type OwnedNFT struct {
	CollectionID string   `json:"collectionId"`
	TokenID      string   `json:"tokenId"`
	Owner        string   `json:"owner"`
	Info         *NFTInfo `json:"info,omitempty"`
}

type NFTInfo struct {
	CollectionID string `json:"collectionId"`
	TokenID      string `json:"tokenId"`
	Owner        string `json:"owner"`
	Metadata     string `json:"metadata,omitempty"`
	Pallet       string `json:"pallet"`
}
