package external

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	BlockTagLatest    = "latest"
	BlockTagFinalized = "finalized"
)

// BlockTag selects the block chain reads are made against: a named tag, a number or a hash.
type BlockTag struct {
	Number rpc.BlockNumber
	Hash   *common.Hash
}

func ParseBlockTag(tag string) (BlockTag, error) {
	tag = strings.TrimSpace(tag)
	switch tag {
	case BlockTagLatest, "":
		return BlockTag{Number: rpc.LatestBlockNumber}, nil
	case BlockTagFinalized:
		return BlockTag{Number: rpc.FinalizedBlockNumber}, nil
	case "safe":
		return BlockTag{Number: rpc.SafeBlockNumber}, nil
	}
	if strings.HasPrefix(tag, "0x") || strings.HasPrefix(tag, "0X") {
		if len(tag) != 2+2*common.HashLength {
			return BlockTag{}, fmt.Errorf("invalid block hash %q", tag)
		}
		hash := common.HexToHash(tag)
		return BlockTag{Hash: &hash}, nil
	}
	number, err := strconv.ParseUint(tag, 10, 63)
	if err != nil {
		return BlockTag{}, fmt.Errorf("invalid block tag %q", tag)
	}
	return BlockTag{Number: rpc.BlockNumber(number)}, nil
}

// BigNumber is the block number argument ethclient expects. Named tags map to their negative
// rpc values and latest maps to nil.
func (t BlockTag) BigNumber() *big.Int {
	if t.Number == rpc.LatestBlockNumber {
		return nil
	}
	return big.NewInt(t.Number.Int64())
}

func (t BlockTag) String() string {
	if t.Hash != nil {
		return t.Hash.Hex()
	}
	return t.Number.String()
}
