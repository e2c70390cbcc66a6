package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-idopool/ido"
)

func TestCascade(t *testing.T) {
	ancestors := make([]common.Address, 6)
	for i := range ancestors {
		ancestors[i] = addr(100 + i)
	}
	for _, tt := range []struct {
		chain int
		want  []int64
	}{
		{0, nil},
		{1, []int64{100}},
		{2, []int64{80, 20}},
		{3, []int64{60, 20, 20}},
		{4, []int64{40, 20, 20, 20}},
		{5, []int64{20, 20, 20, 20, 20}},
		{6, []int64{20, 20, 20, 20, 20}},
	} {
		rewards := Cascade(big.NewInt(100), ancestors[:tt.chain], ido.DefaultRules().Reward)
		require.Len(t, rewards, len(tt.want), "chain %d", tt.chain)
		sum := new(big.Int)
		for i, r := range rewards {
			require.Equal(t, i+1, r.Rank)
			require.Equal(t, ancestors[i], r.Referrer)
			requireBig(t, tt.want[i], r.Amount, "chain %d rank %d", tt.chain, i+1)
			sum.Add(sum, r.Amount)
		}
		if tt.chain > 0 {
			requireBig(t, 100, sum)
		}
	}
}

// buyEnv is a pool where buyer owns almost all deposits and a referral chain of
// the given length hangs above it. At day 1 the buyer can exchange 9999.
func buyEnv(t *testing.T, chain int) (*testEnv, uint64, common.Address, []common.Address) {
	e := newTestEnv(t)
	buyer := addr(0)
	ancestors := make([]common.Address, chain)
	for i := range ancestors {
		ancestors[i] = addr(i + 1)
	}
	e.fund(append([]common.Address{buyer}, ancestors...)...)
	id := e.deploy(1_800_000, 180, 50)

	e.deposit(id, buyer, 1_000_000, day(0))
	for _, a := range ancestors {
		e.deposit(id, a, 1, day(0))
	}
	below := buyer
	for _, a := range ancestors {
		require.NoError(t, e.pool.Accept(Context{Caller: below, Time: day(0)}, id, a))
		below = a
	}

	e.token.mint(buyer, bi(1_000_000))
	e.token.approve(buyer, ContractAddress, bi(1_000_000))
	return e, id, buyer, ancestors
}

func TestBuyRewardCascade(t *testing.T) {
	for chain, want := range [][]int64{
		{},
		{100},
		{80, 20},
		{60, 20, 20},
		{40, 20, 20, 20},
		{20, 20, 20, 20, 20},
		{20, 20, 20, 20, 20, 0},
	} {
		t.Run("", func(t *testing.T) {
			require := require.New(t)
			e, id, buyer, ancestors := buyEnv(t, chain)

			before := make([]*big.Int, len(ancestors))
			for i, a := range ancestors {
				before[i] = new(big.Int).Set(e.db.GetBalance(a))
			}
			buyerBefore := new(big.Int).Set(e.db.GetBalance(buyer))

			receipt, err := e.pool.Buy(Context{Caller: buyer, Time: day(1)}, id, testTokenAddr, bi(2000))
			require.NoError(err)
			requireBig(t, 6000, receipt.TotalPrice)

			var distributed int64
			for i, a := range ancestors {
				got := new(big.Int).Sub(e.db.GetBalance(a), before[i])
				requireBig(t, want[i], got, "rank %d", i+1)
				distributed += want[i]
			}
			requireBig(t, distributed, receipt.TotalReward)

			payout := int64(1900)
			if chain == 0 {
				payout = 2000
			}
			requireBig(t, payout, receipt.BuyerPayout)
			require.Equal(new(big.Int).Add(buyerBefore, bi(payout)), e.db.GetBalance(buyer))

			requireBig(t, 1_000_000-6000, e.token.BalanceOf(buyer))
			requireBig(t, 6000, e.token.BalanceOf(ContractAddress))

			claimed, err := e.pool.Claimed(id, buyer)
			require.NoError(err)
			requireBig(t, 2000, claimed)
			info, err := e.pool.PoolInfo(id)
			require.NoError(err)
			requireBig(t, 1_800_000-2000, info.Reserve)
		})
	}
}

func TestBuyConsumesAvailable(t *testing.T) {
	require := require.New(t)
	e, id, buyer, _ := buyEnv(t, 1)
	requireBig(t, 9999, e.available(id, buyer, day(1)))

	_, err := e.pool.Buy(Context{Caller: buyer, Time: day(1)}, id, testTokenAddr, bi(9000))
	require.NoError(err)
	requireBig(t, 999, e.available(id, buyer, day(1)))

	_, err = e.pool.Buy(Context{Caller: buyer, Time: day(1)}, id, testTokenAddr, bi(1000))
	require.ErrorIs(err, ErrExceedsAvailable)
}

func TestBuyRejected(t *testing.T) {
	for _, tt := range []struct {
		name  string
		setup func(e *testEnv, id uint64, buyer common.Address)
		at    uint64
		token common.Address
		amt   *big.Int
		want  error
	}{
		{"before start", nil, testStart - 1, testTokenAddr, bi(10), ErrPoolNotReady},
		{"matured", nil, day(180), testTokenAddr, bi(10), ErrPoolEnded},
		{"token without code", nil, day(1), addr(77), bi(10), ErrNotAContract},
		{"zero amount", nil, day(1), testTokenAddr, bi(0), ErrInvalidAmount},
		{"over available", nil, day(1), testTokenAddr, bi(10000), ErrExceedsAvailable},
		{"price too small", func(e *testEnv, _ uint64, _ common.Address) {
			e.prices[testTokenAddr] = big.NewInt(1)
		}, day(1), testTokenAddr, bi(10), ErrInvalidAmount},
		{"no price", func(e *testEnv, _ uint64, _ common.Address) {
			delete(e.prices, testTokenAddr)
		}, day(1), testTokenAddr, bi(10), ErrPriceUnavailable},
		{"token balance", func(e *testEnv, _ uint64, buyer common.Address) {
			e.token.Transfer(buyer, addr(50), bi(999_990))
		}, day(1), testTokenAddr, bi(10), ErrInsufficientTokenBalance},
		{"allowance", func(e *testEnv, _ uint64, buyer common.Address) {
			e.token.approve(buyer, ContractAddress, bi(29))
		}, day(1), testTokenAddr, bi(10), ErrInsufficientAllowance},
		{"custody", func(e *testEnv, _ uint64, _ common.Address) {
			e.db.SubBalance(ContractAddress, e.db.GetBalance(ContractAddress))
		}, day(1), testTokenAddr, bi(10), ErrInsufficientReserve},
		{"stopped", func(e *testEnv, _ uint64, _ common.Address) {
			require.NoError(t, e.pool.Stop(Context{Caller: testOwner}))
		}, day(1), testTokenAddr, bi(10), ErrPoolStopped},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e, id, buyer, _ := buyEnv(t, 2)
			if tt.setup != nil {
				tt.setup(e, id, buyer)
			}
			_, err := e.pool.Buy(Context{Caller: buyer, Time: tt.at}, id, tt.token, tt.amt)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// TestBuyFailureRollsBack makes the token pull fail after every check passed and
// verifies no balance, token balance or log survives.
func TestBuyFailureRollsBack(t *testing.T) {
	require := require.New(t)
	e, id, buyer, ancestors := buyEnv(t, 3)
	failing := failingTokens{testTokens{e.db}}
	p, err := New(e.db, ido.DefaultRules(), testOwner, failing, testOracles{e.prices})
	require.NoError(err)

	logs := len(e.db.Logs())
	custody := new(big.Int).Set(e.db.GetBalance(ContractAddress))
	parent := new(big.Int).Set(e.db.GetBalance(ancestors[0]))

	_, err = p.Buy(Context{Caller: buyer, Time: day(1)}, id, testTokenAddr, bi(2000))
	require.ErrorIs(err, ErrTokenTransferFailed)

	require.Len(e.db.Logs(), logs)
	require.Equal(custody, e.db.GetBalance(ContractAddress))
	require.Equal(parent, e.db.GetBalance(ancestors[0]))
	requireBig(t, 1_000_000, e.token.BalanceOf(buyer))
	claimed, err := p.Claimed(id, buyer)
	require.NoError(err)
	requireBig(t, 0, claimed)
}

type failingToken struct {
	*testToken
}

// TransferFrom debits the buyer and then reports failure, like a token that
// returns false instead of reverting.
func (t failingToken) TransferFrom(spender, from, to common.Address, amount *big.Int) bool {
	t.testToken.TransferFrom(spender, from, to, amount)
	return false
}

type failingTokens struct {
	testTokens
}

func (b failingTokens) Token(addr common.Address) Token {
	return failingToken{&testToken{st: ido.NewStorage(b.db, addr)}}
}
