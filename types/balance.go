package types

import (
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var ErrInvalidBalance = errors.New("invalid balance")

// ParseBalance accepts a plain decimal amount, surrounding spaces and "_" separators are ignored.
func ParseBalance(s string) (*uint256.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidBalance, "%q: %s", s, err)
	}
	return v, nil
}

func FormatBalance(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.ToBig().String()
}

func EncodeBalance(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func DecodeBalance(data []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(data)
}
