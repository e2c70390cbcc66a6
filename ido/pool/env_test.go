package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-idopool/ido"
)

// testToken is a minimal ERC20 kept in contract storage, so a reverted call
// also reverts its balances.
type testToken struct {
	st ido.Storage
}

func (t *testToken) BalanceOf(owner common.Address) *big.Int {
	return t.st.Big(ido.Key("balance", owner.Bytes()))
}

func (t *testToken) Allowance(owner, spender common.Address) *big.Int {
	return t.st.Big(ido.Key("allowance", owner.Bytes(), spender.Bytes()))
}

func (t *testToken) mint(to common.Address, amount *big.Int) {
	t.st.SetBig(ido.Key("balance", to.Bytes()), new(big.Int).Add(t.BalanceOf(to), amount))
}

func (t *testToken) approve(owner, spender common.Address, amount *big.Int) {
	t.st.SetBig(ido.Key("allowance", owner.Bytes(), spender.Bytes()), amount)
}

func (t *testToken) Transfer(from, to common.Address, amount *big.Int) bool {
	bal := t.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return false
	}
	t.st.SetBig(ido.Key("balance", from.Bytes()), new(big.Int).Sub(bal, amount))
	t.mint(to, amount)
	return true
}

func (t *testToken) TransferFrom(spender, from, to common.Address, amount *big.Int) bool {
	allowance := t.Allowance(from, spender)
	if allowance.Cmp(amount) < 0 {
		return false
	}
	if !t.Transfer(from, to, amount) {
		return false
	}
	t.approve(from, spender, new(big.Int).Sub(allowance, amount))
	return true
}

type testTokens struct {
	db ido.StateDB
}

func (b testTokens) Token(addr common.Address) Token {
	return &testToken{st: ido.NewStorage(b.db, addr)}
}

type testOracle map[common.Address]*big.Int

func (o testOracle) Price(token common.Address) *big.Int {
	return o[token]
}

type testOracles struct {
	prices testOracle
}

func (b testOracles) Oracle(common.Address) PriceOracle {
	return b.prices
}

const (
	testDay   = 24 * 60 * 60
	testStart = 1_000_000
)

var (
	testOwner      = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	testTokenAddr  = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	testOracleAddr = common.HexToAddress("0x0000000000000000000000000000000000000b02")
)

// testEnv is a pool contract on a fresh in-memory state with one token and one oracle.
type testEnv struct {
	t      *testing.T
	db     *state.StateDB
	pool   *Pool
	token  *testToken
	prices testOracle
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	require.NoError(t, err)

	ido.InstallNative(db, testTokenAddr)
	ido.InstallNative(db, testOracleAddr)
	prices := testOracle{testTokenAddr: new(big.Int).Mul(big.NewInt(3), ido.DefaultRules().PriceUnit())}

	p, err := New(db, ido.DefaultRules(), testOwner, testTokens{db}, testOracles{prices})
	require.NoError(t, err)

	db.AddBalance(testOwner, bi(10_000_000))
	return &testEnv{
		t:      t,
		db:     db,
		pool:   p,
		token:  &testToken{st: ido.NewStorage(db, testTokenAddr)},
		prices: prices,
	}
}

func bi(n int64) *big.Int {
	return big.NewInt(n)
}

func addr(n int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x1000 + n)))
}

// fund gives each account native value to deposit with.
func (e *testEnv) fund(accounts ...common.Address) {
	for _, a := range accounts {
		e.db.AddBalance(a, bi(10_000_000))
	}
}

// deploy creates a pool starting at testStart.
func (e *testEnv) deploy(funded int64, days uint64, rate uint64) uint64 {
	id, err := e.pool.Deploy(Context{Caller: testOwner, Value: bi(funded), Time: testStart}, testStart, days*testDay, rate, testOracleAddr)
	require.NoError(e.t, err)
	return id
}

func (e *testEnv) deposit(id uint64, who common.Address, amount int64, at uint64) {
	require.NoError(e.t, e.pool.Deposit(Context{Caller: who, Value: bi(amount), Time: at}, id))
}

func (e *testEnv) balance(id uint64, who common.Address) *big.Int {
	b, err := e.pool.BalanceOf(id, who)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) total(id uint64) *big.Int {
	b, err := e.pool.TotalDeposit(id)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) available(id uint64, who common.Address, at uint64) *big.Int {
	b, err := e.pool.AvailableToExchange(id, who, at)
	require.NoError(e.t, err)
	return b
}

func day(n uint64) uint64 {
	return testStart + n*testDay
}

// requireBig compares a big integer by value; zero values differ in internal
// representation depending on how they were computed.
func requireBig(t *testing.T, want int64, got *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotNil(t, got, msgAndArgs...)
	require.Equal(t, big.NewInt(want).String(), got.String(), msgAndArgs...)
}
