package pool

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ContractAddress is the address of the pool contract.
	// It holds every pool's native-value custody and the pool storage.
	ContractAddress = common.HexToAddress("0xd1d0000000000000000000000000000000000001")

	// ContractABI is the JSON ABI of the pool contract: its call surface and the events
	// appended to the state on every mutation.
	ContractABI = `[
	{"type":"function","name":"deploy","stateMutability":"payable","inputs":[{"name":"startTime","type":"uint256"},{"name":"duration","type":"uint256"},{"name":"rewardRate","type":"uint256"},{"name":"oracle","type":"address"}],"outputs":[{"name":"poolId","type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"paid","type":"uint256"}]},
	{"type":"function","name":"accept","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"referrer","type":"address"}],"outputs":[]},
	{"type":"function","name":"buy","stateMutability":"nonpayable","inputs":[{"name":"poolId","type":"uint256"},{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"totalPrice","type":"uint256"},{"name":"payout","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"refund","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"stop","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"start","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"stopped","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"poolCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"poolId","type":"uint256"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalDeposit","stateMutability":"view","inputs":[{"name":"poolId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"availableToExchange","stateMutability":"view","inputs":[{"name":"poolId","type":"uint256"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"referrerOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"Deployed","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"startTime","type":"uint256","indexed":false},{"name":"duration","type":"uint256","indexed":false},{"name":"totalFunded","type":"uint256","indexed":false},{"name":"dailyRelease","type":"uint256","indexed":false},{"name":"rewardRate","type":"uint256","indexed":false},{"name":"admin","type":"address","indexed":true},{"name":"oracle","type":"address","indexed":false}]},
	{"type":"event","name":"Deposited","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Withdrawn","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Accepted","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"account","type":"address","indexed":true},{"name":"referrer","type":"address","indexed":true}]},
	{"type":"event","name":"Purchased","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"totalPrice","type":"uint256","indexed":false},{"name":"reward","type":"uint256","indexed":false}]},
	{"type":"event","name":"Rewarded","anonymous":false,"inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"referrer","type":"address","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"rank","type":"uint256","indexed":false},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Stopped","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":false}]},
	{"type":"event","name":"Started","anonymous":false,"inputs":[{"name":"account","type":"address","indexed":false}]},
	{"type":"event","name":"Transferred","anonymous":false,"inputs":[{"name":"token","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Refunded","anonymous":false,"inputs":[{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[{"name":"previousOwner","type":"address","indexed":true},{"name":"newOwner","type":"address","indexed":true}]}
]`
)

// parsedABI is ContractABI parsed once at package initialization.
var parsedABI abi.ABI

func init() {
	var err error
	parsedABI, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
}

// ABI returns the parsed pool contract ABI.
func ABI() abi.ABI {
	return parsedABI
}

// emit appends an event log of the pool contract to the state.
// topics are the indexed arguments in declaration order; args are the rest.
func (p *Pool) emit(name string, topics []common.Hash, args ...interface{}) error {
	event, ok := parsedABI.Events[name]
	if !ok {
		panic("unknown pool event " + name)
	}
	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		return err
	}
	p.db.AddLog(&types.Log{
		Address: ContractAddress,
		Topics:  append([]common.Hash{event.ID}, topics...),
		Data:    data,
	})
	return nil
}

func bigTopic(v uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(v))
}
