package model

// swagger:model User
type User struct {
	UUIDBase
	Email         string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string  `gorm:"size:100" json:"-"`
	WalletAddress *string `gorm:"size:64;uniqueIndex" json:"walletAddress,omitempty"`
	Name          string  `gorm:"size:100" json:"name"`
}

func (User) TableName() string {
	return "users"
}

// Wallet 返回钱包地址，未绑定时为空字符串
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}

// DisplayName 证书上使用的学员名称
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
