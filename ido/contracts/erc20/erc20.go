// Package erc20 implements a native ERC20 token contract over a StateDB.
//
// The storage follows the layout a Solidity ERC20 compiles to, so a state
// written by this package can be read with ordinary eth_getStorageAt tooling:
//
//	slot 0  mapping(address => uint256) balances
//	slot 1  mapping(address => mapping(address => uint256)) allowances
//	slot 2  uint256 totalSupply
//	slot 3  string name     (short string encoding)
//	slot 4  string symbol   (short string encoding)
//	slot 5  uint8 decimals
//	slot 6  address minter
//
// Transfer and Approval logs use the standard ERC20 event signatures.
package erc20

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
	slotBalances = iota
	slotAllowances
	slotTotalSupply
	slotName
	slotSymbol
	slotDecimals
	slotMinter
)

// ContractABI is the event ABI of the token.
const ContractABI = `[
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	// ErrDeployed is returned when the target address already holds code.
	ErrDeployed = errors.New("erc20: address already has code")
	// ErrNotMinter is returned when minting is attempted by anyone but the minter.
	ErrNotMinter = errors.New("erc20: caller is not the minter")
	// ErrNameTooLong is returned for names and symbols that do not fit a short string.
	ErrNameTooLong = errors.New("erc20: name or symbol longer than 31 bytes")
	// ErrNotAToken is returned by At for an address without code.
	ErrNotAToken = errors.New("erc20: address has no code")
)

var parsedABI abi.ABI

func init() {
	var err error
	parsedABI, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}
}

// Token is a deployed ERC20 token contract.
type Token struct {
	db   ido.StateDB
	addr common.Address
	st   ido.Storage
}

// Deploy installs a token at addr with minter allowed to create supply.
func Deploy(db ido.StateDB, addr common.Address, name, symbol string, decimals uint8, minter common.Address) (*Token, error) {
	if ido.IsContract(db, addr) {
		return nil, ErrDeployed
	}
	if len(name) > 31 || len(symbol) > 31 {
		return nil, ErrNameTooLong
	}
	ido.InstallNative(db, addr)
	t := newToken(db, addr)
	t.st.SetBig(slot(slotName), shortString(name))
	t.st.SetBig(slot(slotSymbol), shortString(symbol))
	t.st.SetUint64(slot(slotDecimals), uint64(decimals))
	t.st.SetAddress(slot(slotMinter), minter)
	return t, nil
}

// At binds the token deployed at addr.
func At(db ido.StateDB, addr common.Address) (*Token, error) {
	if !ido.IsContract(db, addr) {
		return nil, ErrNotAToken
	}
	return newToken(db, addr), nil
}

func newToken(db ido.StateDB, addr common.Address) *Token {
	return &Token{db: db, addr: addr, st: ido.NewStorage(db, addr)}
}

// Address returns the token contract address.
func (t *Token) Address() common.Address {
	return t.addr
}

func (t *Token) Name() string {
	return readShortString(t.st.Big(slot(slotName)))
}

func (t *Token) Symbol() string {
	return readShortString(t.st.Big(slot(slotSymbol)))
}

func (t *Token) Decimals() uint8 {
	return uint8(t.st.Uint64(slot(slotDecimals)))
}

func (t *Token) Minter() common.Address {
	return t.st.AddressAt(slot(slotMinter))
}

func (t *Token) TotalSupply() *big.Int {
	return t.st.Big(slot(slotTotalSupply))
}

func (t *Token) BalanceOf(owner common.Address) *big.Int {
	return t.st.Big(balanceKey(owner))
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	return t.st.Big(allowanceKey(owner, spender))
}

// Mint creates amount new tokens for to.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	if caller != t.Minter() {
		return ErrNotMinter
	}
	t.st.SetBig(slot(slotTotalSupply), new(big.Int).Add(t.TotalSupply(), amount))
	t.st.SetBig(balanceKey(to), new(big.Int).Add(t.BalanceOf(to), amount))
	t.emit("Transfer", common.Address{}, to, amount)
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) bool {
	if spender == (common.Address{}) {
		return false
	}
	t.st.SetBig(allowanceKey(owner, spender), amount)
	t.emit("Approval", owner, spender, amount)
	return true
}

// Transfer moves amount from from to to. It reports false, changing nothing,
// when from cannot cover the amount or to is the zero address.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) bool {
	if to == (common.Address{}) || amount.Sign() < 0 {
		return false
	}
	bal := t.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return false
	}
	t.st.SetBig(balanceKey(from), new(big.Int).Sub(bal, amount))
	t.st.SetBig(balanceKey(to), new(big.Int).Add(t.BalanceOf(to), amount))
	t.emit("Transfer", from, to, amount)
	return true
}

// TransferFrom moves amount from from to to on behalf of spender and consumes
// the allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) bool {
	allowance := t.Allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return false
	}
	if !t.Transfer(from, to, amount) {
		return false
	}
	t.st.SetBig(allowanceKey(from, spender), new(big.Int).Sub(allowance, amount))
	return true
}

func (t *Token) emit(name string, a, b common.Address, value *big.Int) {
	event := parsedABI.Events[name]
	data, err := event.Inputs.NonIndexed().Pack(value)
	if err != nil {
		panic(err)
	}
	t.db.AddLog(&types.Log{
		Address: t.addr,
		Topics:  []common.Hash{event.ID, a.Hash(), b.Hash()},
		Data:    data,
	})
}

// Registry resolves token contracts for the pool.
type Registry struct {
	db ido.StateDB
}

// NewRegistry returns the token registry of db.
func NewRegistry(db ido.StateDB) *Registry {
	return &Registry{db: db}
}

// Token returns the token at addr. The pool checks for code before asking.
func (r *Registry) Token(addr common.Address) pool.Token {
	return newToken(r.db, addr)
}

func slot(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// balanceKey is keccak256(pad(owner) . pad(slotBalances)).
func balanceKey(owner common.Address) common.Hash {
	return crypto.Keccak256Hash(owner.Hash().Bytes(), slot(slotBalances).Bytes())
}

// allowanceKey is keccak256(pad(spender) . keccak256(pad(owner) . pad(slotAllowances))).
func allowanceKey(owner, spender common.Address) common.Hash {
	inner := crypto.Keccak256Hash(owner.Hash().Bytes(), slot(slotAllowances).Bytes())
	return crypto.Keccak256Hash(spender.Hash().Bytes(), inner.Bytes())
}

// shortString encodes s the way Solidity stores strings under 32 bytes:
// data left aligned, length*2 in the lowest byte.
func shortString(s string) *big.Int {
	var h common.Hash
	copy(h[:], s)
	h[common.HashLength-1] = byte(len(s) * 2)
	return h.Big()
}

func readShortString(v *big.Int) string {
	h := common.BigToHash(v)
	n := int(h[common.HashLength-1] / 2)
	if n > 31 {
		return ""
	}
	return string(h[:n])
}
