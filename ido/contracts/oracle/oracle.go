// Package oracle implements the native price oracle consulted by the pool on
// every purchase. A price is the number of token units paid for one whole unit
// of native value.
package oracle

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/ido/pool"
)

const (
	slotOwner = iota
	slotPrices
)

// ContractABI is the event ABI of the oracle.
const ContractABI = `[
	{"type":"event","name":"PriceChanged","anonymous":false,"inputs":[{"name":"token","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]}
]`

var (
	ErrDeployed  = errors.New("oracle: address already has code")
	ErrNotOracle = errors.New("oracle: address has no code")
	ErrNotOwner  = errors.New("PriceOracle::setPrice: caller is not the owner")
	ErrZeroToken = errors.New("PriceOracle::setPrice: token is the zero address")
	ErrNotAToken = errors.New("PriceOracle::setPrice: token is a non-contract")
	ErrZeroPrice = errors.New("PriceOracle::setPrice: price must be positive")
)

var priceChanged abi.Event

func init() {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
	priceChanged = parsed.Events["PriceChanged"]
}

// Oracle is a deployed price oracle contract.
type Oracle struct {
	db   ido.StateDB
	addr common.Address
	st   ido.Storage
}

// Deploy installs an oracle at addr administered by owner.
func Deploy(db ido.StateDB, addr, owner common.Address) (*Oracle, error) {
	if ido.IsContract(db, addr) {
		return nil, ErrDeployed
	}
	ido.InstallNative(db, addr)
	o := newOracle(db, addr)
	o.st.SetAddress(slot(slotOwner), owner)
	return o, nil
}

// At binds the oracle deployed at addr.
func At(db ido.StateDB, addr common.Address) (*Oracle, error) {
	if !ido.IsContract(db, addr) {
		return nil, ErrNotOracle
	}
	return newOracle(db, addr), nil
}

func newOracle(db ido.StateDB, addr common.Address) *Oracle {
	return &Oracle{db: db, addr: addr, st: ido.NewStorage(db, addr)}
}

// Address returns the oracle contract address.
func (o *Oracle) Address() common.Address {
	return o.addr
}

// Owner returns the account allowed to set prices.
func (o *Oracle) Owner() common.Address {
	return o.st.AddressAt(slot(slotOwner))
}

// Price returns the price of token, zero when none was set.
func (o *Oracle) Price(token common.Address) *big.Int {
	return o.st.Big(priceKey(token))
}

// SetPrice quotes token at price. Only the owner may set prices, only for
// token contracts, and never to zero.
func (o *Oracle) SetPrice(caller, token common.Address, price *big.Int) error {
	if caller != o.Owner() {
		return ErrNotOwner
	}
	if token == (common.Address{}) {
		return ErrZeroToken
	}
	if !ido.IsContract(o.db, token) {
		return ErrNotAToken
	}
	if price == nil || price.Sign() <= 0 {
		return ErrZeroPrice
	}
	o.st.SetBig(priceKey(token), price)

	data, err := priceChanged.Inputs.NonIndexed().Pack(price)
	if err != nil {
		return err
	}
	o.db.AddLog(&types.Log{
		Address: o.addr,
		Topics:  []common.Hash{priceChanged.ID, token.Hash()},
		Data:    data,
	})
	return nil
}

// Registry resolves oracle contracts for the pool.
type Registry struct {
	db ido.StateDB
}

// NewRegistry returns the oracle registry of db.
func NewRegistry(db ido.StateDB) *Registry {
	return &Registry{db: db}
}

// Oracle returns the oracle at addr, or nil when addr has no code.
func (r *Registry) Oracle(addr common.Address) pool.PriceOracle {
	if !ido.IsContract(r.db, addr) {
		return nil
	}
	return newOracle(r.db, addr)
}

func slot(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// priceKey is keccak256(pad(token) . pad(slotPrices)).
func priceKey(token common.Address) common.Hash {
	return crypto.Keccak256Hash(token.Hash().Bytes(), slot(slotPrices).Bytes())
}
