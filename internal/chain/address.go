package chain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vedhavyas/go-subkey/v2"
)

// ErrInvalidAddress 地址无法按 SS58 校验和解码
var ErrInvalidAddress = errors.New("invalid address")

const AccountIDLen = 32

// DecodeAddress 解码任意网络前缀的 SS58 地址，返回 32 字节公钥
func DecodeAddress(address string) ([]byte, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}
	_, pub, err := subkey.SS58Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(pub) != AccountIDLen {
		return nil, fmt.Errorf("%w: unexpected public key length %d", ErrInvalidAddress, len(pub))
	}
	return pub, nil
}

func EncodeAddress(pub []byte, format uint16) string {
	return subkey.SS58Encode(pub, format)
}

func ValidateAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// SameAccount 按公钥字节比较，同一密钥在不同网络前缀下编码不同
func SameAccount(a, b []byte) bool {
	return len(a) == AccountIDLen && bytes.Equal(a, b)
}

// SameAddress 两个 SS58 地址是否指向同一账户
func SameAddress(a, b string) bool {
	pa, err := DecodeAddress(a)
	if err != nil {
		return false
	}
	pb, err := DecodeAddress(b)
	if err != nil {
		return false
	}
	return SameAccount(pa, pb)
}
