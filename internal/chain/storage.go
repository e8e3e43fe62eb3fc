package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/xxhash"
	"golang.org/x/crypto/blake2b"
)

func twox128(data []byte) []byte {
	return xxhash.New128(data).Sum(nil)
}

func blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func blake2_128Concat(data []byte) []byte {
	return append(blake2_128(data), data...)
}

func u32LE(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// StoragePrefix twox128(pallet) ++ twox128(item)
func StoragePrefix(pallet, item string) []byte {
	return append(twox128([]byte(pallet)), twox128([]byte(item))...)
}

// MapKey 由 Blake2_128Concat 哈希的多级 map 键
func MapKey(pallet, item string, keys ...[]byte) []byte {
	key := StoragePrefix(pallet, item)
	for _, k := range keys {
		key = append(key, blake2_128Concat(k)...)
	}
	return key
}

// splitConcatKeys 从去掉前缀的键中依次取出 Blake2_128Concat 编码的定长原始键
func splitConcatKeys(rest []byte, sizes ...int) ([][]byte, error) {
	out := make([][]byte, 0, len(sizes))
	for _, size := range sizes {
		if len(rest) < 16+size {
			return nil, fmt.Errorf("storage key too short")
		}
		out = append(out, rest[16:16+size])
		rest = rest[16+size:]
	}
	return out, nil
}

func newDecoder(raw []byte) *scale.Decoder {
	return scale.NewDecoder(bytes.NewReader(raw))
}

func readAccountID(dec *scale.Decoder) ([]byte, error) {
	account := make([]byte, AccountIDLen)
	if err := dec.Read(account); err != nil {
		return nil, err
	}
	return account, nil
}

func readU32(dec *scale.Decoder) (uint32, error) {
	var v types.U32
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func readU128(dec *scale.Decoder) (*big.Int, error) {
	var v types.U128
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if v.Int == nil {
		return new(big.Int), nil
	}
	return v.Int, nil
}

func readBytes(dec *scale.Decoder) ([]byte, error) {
	var v types.Bytes
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func skipOptionAccountID(dec *scale.Decoder) error {
	flag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if flag == 1 {
		_, err = readAccountID(dec)
	}
	return err
}
