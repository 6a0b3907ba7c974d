package store

import (
	"encoding/binary"

	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// kMeta holds scalar counters.
	kMeta byte = 0x00
	// kProposal holds JSON encoded proposal records keyed by id.
	kProposal byte = 0x01
	// kStake holds 32 byte stake totals keyed by (proposal, voter, side, asset).
	kStake byte = 0x02
)

var (
	proposalCountKey   = []byte{kMeta, 'p'}
	referendumCountKey = []byte{kMeta, 'r'}
)

// ids are big-endian so keys sort in id order
func proposalKey(id uint64) []byte {
	var buf [9]byte
	buf[0] = kProposal
	binary.BigEndian.PutUint64(buf[1:], id)
	return buf[:]
}

func stakeKey(id uint64, voter common.Address, side types.Side, asset types.AssetID) []byte {
	buf := make([]byte, 0, 1+8+common.AddressLength+1+4)
	buf = append(buf, kStake)
	buf = binary.BigEndian.AppendUint64(buf, id)
	buf = append(buf, voter.Bytes()...)
	buf = append(buf, byte(side))
	buf = binary.BigEndian.AppendUint32(buf, uint32(asset))
	return buf
}

func encodeUint64(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return buf[:]
}

func decodeUint64(data []byte) uint64 {
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}
