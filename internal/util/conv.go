package util

import (
	"strconv"
)

// ParseUint32 解析链上 collection / item id
func ParseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, Errorf(ErrValidation, "%q is not a valid id", s)
	}
	return uint32(v), nil
}

// ShortAddress 取地址前 8 位，用于生成默认用户名/邮箱
func ShortAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:8]
}
