package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-idopool/ido"
)

func TestDeploy(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	ownerBefore := new(big.Int).Set(e.db.GetBalance(testOwner))

	id := e.deploy(1_000_003, 10, 50)
	require.Equal(uint64(1), id)
	require.Equal(uint64(1), e.pool.PoolCount())

	info, err := e.pool.PoolInfo(id)
	require.NoError(err)
	require.Equal(uint64(testStart), info.StartTime)
	require.Equal(uint64(testStart+10*testDay), info.EndTime())
	requireBig(t, 100_000, info.DailyRelease)
	requireBig(t, 1_000_003, info.TotalFunded)
	requireBig(t, 1_000_003, info.Reserve)
	require.Equal(testOwner, info.Admin)
	require.Equal(testOracleAddr, info.Oracle)
	require.Equal(new(big.Int).Sub(ownerBefore, bi(1_000_003)), e.db.GetBalance(testOwner))

	logs := e.db.Logs()
	require.NotEmpty(logs)
	last := logs[len(logs)-1]
	require.Equal(ABI().Events["Deployed"].ID, last.Topics[0])
	require.Equal(bigTopic(id), last.Topics[1])
	require.Equal(testOwner.Hash(), last.Topics[2])

	values, err := ABI().Events["Deployed"].Inputs.NonIndexed().Unpack(last.Data)
	require.NoError(err)
	requireBig(t, 100_000, values[3].(*big.Int))
	require.Equal(testOracleAddr, values[5])

	require.Equal(uint64(2), e.deploy(10, 1, 0))
}

func TestDeployRejected(t *testing.T) {
	for _, tt := range []struct {
		name     string
		caller   common.Address
		value    *big.Int
		start    uint64
		duration uint64
		rate     uint64
		oracle   common.Address
		want     error
	}{
		{"not owner", addr(1), bi(10), testStart, testDay, 0, testOracleAddr, ErrUnauthorized},
		{"no value", testOwner, bi(0), testStart, testDay, 0, testOracleAddr, ErrInvalidAmount},
		{"start in the past", testOwner, bi(10), testStart - 1, testDay, 0, testOracleAddr, ErrStartTooSoon},
		{"short duration", testOwner, bi(10), testStart, testDay - 1, 0, testOracleAddr, ErrDurationTooShort},
		{"rate over permil", testOwner, bi(10), testStart, testDay, 1001, testOracleAddr, ErrInvalidRewardRate},
		{"oracle without code", testOwner, bi(10), testStart, testDay, 0, addr(5), ErrNotAContract},
		{"over balance", testOwner, bi(20_000_000), testStart, testDay, 0, testOracleAddr, ErrInsufficientFunds},
	} {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.fund(addr(1))
			_, err := e.pool.Deploy(Context{Caller: tt.caller, Value: tt.value, Time: testStart}, tt.start, tt.duration, tt.rate, tt.oracle)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, uint64(0), e.pool.PoolCount())
		})
	}

	e := newTestEnv(t)
	require.NoError(t, e.pool.Stop(Context{Caller: testOwner}))
	_, err := e.pool.Deploy(Context{Caller: testOwner, Value: bi(10), Time: testStart}, testStart, testDay, 0, testOracleAddr)
	require.ErrorIs(t, err, ErrPoolStopped)
}

func TestTransferAndRefund(t *testing.T) {
	require := require.New(t)
	e, id, buyer, _ := buyEnv(t, 0)
	_, err := e.pool.Buy(Context{Caller: buyer, Time: day(1)}, id, testTokenAddr, bi(1000))
	require.NoError(err)
	requireBig(t, 3000, e.token.BalanceOf(ContractAddress))

	treasury := addr(40)
	owner := Context{Caller: testOwner}
	require.ErrorIs(e.pool.Transfer(Context{Caller: buyer}, testTokenAddr, treasury, bi(1)), ErrUnauthorized)
	require.ErrorIs(e.pool.Transfer(owner, addr(41), treasury, bi(1)), ErrNotAContract)
	require.ErrorIs(e.pool.Transfer(owner, testTokenAddr, treasury, bi(0)), ErrInvalidAmount)
	require.ErrorIs(e.pool.Transfer(owner, testTokenAddr, treasury, bi(3001)), ErrInsufficientBalance)
	require.NoError(e.pool.Transfer(owner, testTokenAddr, treasury, bi(2500)))
	requireBig(t, 2500, e.token.BalanceOf(treasury))
	requireBig(t, 500, e.token.BalanceOf(ContractAddress))

	custody := new(big.Int).Set(e.db.GetBalance(ContractAddress))
	require.ErrorIs(e.pool.Refund(Context{Caller: buyer}, treasury, bi(1)), ErrUnauthorized)
	require.ErrorIs(e.pool.Refund(owner, treasury, nil), ErrInvalidAmount)
	require.ErrorIs(e.pool.Refund(owner, treasury, new(big.Int).Add(custody, bi(1))), ErrInsufficientBalance)

	// admin transfers keep working while stopped
	require.NoError(e.pool.Stop(owner))
	require.NoError(e.pool.Refund(owner, treasury, bi(123)))
	requireBig(t, 123, e.db.GetBalance(treasury))
	require.Equal(new(big.Int).Sub(custody, bi(123)), e.db.GetBalance(ContractAddress))
	require.NoError(e.pool.Transfer(owner, testTokenAddr, treasury, bi(500)))
}

func TestOwnership(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	next := addr(9)

	require.ErrorIs(e.pool.Stop(Context{Caller: next}), ErrUnauthorized)
	require.ErrorIs(e.pool.TransferOwnership(Context{Caller: testOwner}, common.Address{}), ErrZeroAddress)
	require.NoError(e.pool.TransferOwnership(Context{Caller: testOwner}, next))
	require.Equal(next, e.pool.Owner())

	require.ErrorIs(e.pool.Stop(Context{Caller: testOwner}), ErrUnauthorized)
	require.NoError(e.pool.Stop(Context{Caller: next}))
	require.True(e.pool.Stopped())
	require.NoError(e.pool.Start(Context{Caller: next}))
	require.False(e.pool.Stopped())

	// reopening the state keeps the stored owner
	p, err := New(e.db, ido.DefaultRules(), testOwner, nil, nil)
	require.NoError(err)
	require.Equal(next, p.Owner())
}
