package ido

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// NativeCode is the runtime code installed at the address of every native contract.
// The single INVALID opcode makes the account a contract for code-size checks
// while guaranteeing the EVM can never execute it.
var NativeCode = []byte{0xfe}

// StateDB is the subset of the go-ethereum state the native contracts need.
// Both *state.StateDB and vm.StateDB satisfy it.
type StateDB interface {
	GetBalance(common.Address) *big.Int
	AddBalance(common.Address, *big.Int)
	SubBalance(common.Address, *big.Int)

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCodeSize(common.Address) int
	SetCode(common.Address, []byte)

	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)

	AddLog(*types.Log)

	Snapshot() int
	RevertToSnapshot(int)
}

// IsContract reports whether addr has code.
func IsContract(db StateDB, addr common.Address) bool {
	return db.GetCodeSize(addr) > 0
}

// InstallNative marks addr as a native contract account.
// The nonce keeps the account non-empty so its storage survives state commits.
func InstallNative(db StateDB, addr common.Address) {
	if db.GetCodeSize(addr) == 0 {
		db.SetCode(addr, NativeCode)
	}
	if db.GetNonce(addr) == 0 {
		db.SetNonce(addr, 1)
	}
}

// Key derives a storage slot from a field name and fixed-width key components.
func Key(field string, parts ...[]byte) common.Hash {
	data := make([][]byte, 0, len(parts)+1)
	data = append(data, []byte(field))
	data = append(data, parts...)
	return crypto.Keccak256Hash(data...)
}

// U64 encodes n as a big-endian key component.
func U64(n uint64) []byte {
	return bigendian.Uint64ToBytes(n)
}

// Storage reads and writes typed values in the storage of one contract account.
type Storage struct {
	db   StateDB
	addr common.Address
}

// NewStorage returns the storage view of addr.
func NewStorage(db StateDB, addr common.Address) Storage {
	return Storage{db: db, addr: addr}
}

// Address returns the account the storage belongs to.
func (s Storage) Address() common.Address {
	return s.addr
}

// Big reads an unsigned 256-bit value.
func (s Storage) Big(key common.Hash) *big.Int {
	return s.db.GetState(s.addr, key).Big()
}

// SetBig writes an unsigned 256-bit value.
func (s Storage) SetBig(key common.Hash, v *big.Int) {
	s.db.SetState(s.addr, key, common.BigToHash(v))
}

// Uint64 reads a value stored by SetUint64.
func (s Storage) Uint64(key common.Hash) uint64 {
	return s.db.GetState(s.addr, key).Big().Uint64()
}

// SetUint64 writes a 64-bit value.
func (s Storage) SetUint64(key common.Hash, v uint64) {
	s.db.SetState(s.addr, key, common.BigToHash(new(big.Int).SetUint64(v)))
}

// AddressAt reads an address.
func (s Storage) AddressAt(key common.Hash) common.Address {
	return common.BytesToAddress(s.db.GetState(s.addr, key).Bytes())
}

// SetAddress writes an address.
func (s Storage) SetAddress(key common.Hash, a common.Address) {
	s.db.SetState(s.addr, key, a.Hash())
}

// Bool reads a flag.
func (s Storage) Bool(key common.Hash) bool {
	return s.db.GetState(s.addr, key) != (common.Hash{})
}

// SetBool writes a flag.
func (s Storage) SetBool(key common.Hash, v bool) {
	var h common.Hash
	if v {
		h[common.HashLength-1] = 1
	}
	s.db.SetState(s.addr, key, h)
}

// CanTransfer checks whether addr holds at least amount of native value.
func CanTransfer(db StateDB, addr common.Address, amount *big.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

// Transfer moves native value between accounts. The caller checks CanTransfer first.
func Transfer(db StateDB, from, to common.Address, amount *big.Int) {
	db.SubBalance(from, amount)
	db.AddBalance(to, amount)
}
