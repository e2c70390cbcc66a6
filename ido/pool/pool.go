// Package pool implements the IDO staking pool as a native contract over a
// go-ethereum StateDB.
//
// Overview:
//
//	Participants deposit native value into a pool. The admin funds the pool with a
//	reward reservoir that is released in equal daily installments over the pool's
//	duration; each day's installment is split between depositors in proportion to
//	their balance at the close of the previous day. The unlocked amount can be
//	exchanged: a buyer pays an external ERC20 token at the oracle price and receives
//	native value, while a permil commission cascades up to five referral ancestors.
//
// Components:
//   - Ledger: per-user balances, per-day deposit buckets, closing-balance history
//   - Vesting: cumulative unlocked amount from the closing histories
//   - Withdrawal: same-day clawback while active, full balance after maturity
//   - Referral registry: one irrevocable referrer per account
//   - Purchase and reward cascade
//
// Execution Model:
//
//	Every entry point runs under the engine mutex and inside a StateDB snapshot.
//	A rejected call reverts its state changes, value transfers, token movements and
//	logs, and returns a *RevertError.
package pool

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

// Token is the ERC20 collaborator paid with on purchases.
// Transfer and TransferFrom move value on behalf of the pool contract and report
// success the way an ERC20 returns a bool.
type Token interface {
	BalanceOf(owner common.Address) *big.Int
	Allowance(owner, spender common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) bool
	TransferFrom(spender, from, to common.Address, amount *big.Int) bool
}

// TokenBackend resolves the token contract deployed at an address.
type TokenBackend interface {
	Token(addr common.Address) Token
}

// PriceOracle quotes the price of one whole native unit in token units.
type PriceOracle interface {
	Price(token common.Address) *big.Int
}

// OracleBackend resolves the oracle contract deployed at an address.
type OracleBackend interface {
	Oracle(addr common.Address) PriceOracle
}

// Context carries the caller, the attached native value and the block time of one call.
type Context struct {
	Caller common.Address
	Value  *big.Int
	Time   uint64
}

func (c Context) value() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return c.Value
}

// Pool is the pool contract engine. It is safe for concurrent use; calls are serialized.
type Pool struct {
	mu sync.Mutex

	db      ido.StateDB
	st      ido.Storage
	rules   ido.Rules
	guard   *Guard
	tokens  TokenBackend
	oracles OracleBackend

	log *logrus.Entry
}

// New binds the pool contract to db. On a fresh state it installs the contract
// account and records owner as the admin; on an existing state the stored owner
// is kept.
func New(db ido.StateDB, rules ido.Rules, owner common.Address, tokens TokenBackend, oracles OracleBackend) (*Pool, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	st := ido.NewStorage(db, ContractAddress)
	p := &Pool{
		db:      db,
		st:      st,
		rules:   rules,
		guard:   newGuard(st),
		tokens:  tokens,
		oracles: oracles,
		log:     logrus.WithField("module", "pool"),
	}
	ido.InstallNative(db, ContractAddress)
	if p.guard.init(owner) {
		p.log.WithField("owner", owner.Hex()).Info("Pool contract initialized")
	}
	return p, nil
}

// SetLogger replaces the logger the engine reports to.
func (p *Pool) SetLogger(log *logrus.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = log
}

// Rules returns the rules the engine was built with.
func (p *Pool) Rules() ido.Rules {
	return p.rules
}

// atomic runs fn inside a state snapshot and reverts everything fn did if it fails.
func (p *Pool) atomic(fn func() error) error {
	snap := p.db.Snapshot()
	if err := fn(); err != nil {
		p.db.RevertToSnapshot(snap)
		return err
	}
	return nil
}

// dayIndex is the vesting day of now: 0 before the start, then whole days since start.
func (p *Pool) dayIndex(info *Info, now uint64) uint64 {
	if now < info.StartTime {
		return 0
	}
	return (now - info.StartTime) / p.rules.DayLength
}

func (p *Pool) durationDays(info *Info) uint64 {
	return info.Duration / p.rules.DayLength
}

// Owner returns the contract owner.
func (p *Pool) Owner() common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.guard.Owner()
}

// Stopped reports whether the pause switch is on.
func (p *Pool) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.guard.Stopped()
}

// PoolCount returns the number of deployed pools. Pool ids run from 1 to PoolCount.
func (p *Pool) PoolCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.Uint64(ido.Key(slotPoolCount))
}

// PoolInfo returns the stored configuration and accounting of pool id.
func (p *Pool) PoolInfo(id uint64) (*Info, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadInfo(id)
}
