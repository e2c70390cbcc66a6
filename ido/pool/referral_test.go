package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	alice, bob, carol := addr(1), addr(2), addr(3)
	e.fund(alice, bob, carol)
	id := e.deploy(1000, 10, 50)

	err := e.pool.Accept(Context{Caller: bob, Time: day(0)}, id, alice)
	require.ErrorIs(err, ErrReferrerNotDeposited)

	e.deposit(id, alice, 1, day(0))
	require.NoError(e.pool.Accept(Context{Caller: bob, Time: day(0)}, id, alice))
	require.Equal(alice, e.pool.ReferrerOf(bob))

	// a second accept fails whatever the referrer
	e.deposit(id, carol, 1, day(0))
	err = e.pool.Accept(Context{Caller: bob, Time: day(0)}, id, carol)
	require.ErrorIs(err, ErrAlreadyAccepted)
	err = e.pool.Accept(Context{Caller: bob, Time: day(0)}, id, alice)
	require.ErrorIs(err, ErrAlreadyAccepted)
	require.Equal(alice, e.pool.ReferrerOf(bob))

	err = e.pool.Accept(Context{Caller: carol, Time: day(0)}, id+1, alice)
	require.ErrorIs(err, ErrPoolNotFound)
}

func TestAcceptIsGlobal(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	alice, bob := addr(1), addr(2)
	e.fund(alice, bob)
	first := e.deploy(1000, 10, 50)
	second := e.deploy(1000, 10, 50)

	e.deposit(first, alice, 1, day(0))
	e.deposit(second, alice, 1, day(0))
	require.NoError(e.pool.Accept(Context{Caller: bob}, first, alice))
	require.ErrorIs(e.pool.Accept(Context{Caller: bob}, second, alice), ErrAlreadyAccepted)
}

func TestAcceptRejectsCycles(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	chain := make([]common.Address, 7)
	for i := range chain {
		chain[i] = addr(i + 1)
	}
	e.fund(chain...)
	id := e.deploy(1000, 10, 50)
	for _, a := range chain {
		e.deposit(id, a, 1, day(0))
	}
	require.ErrorIs(e.pool.Accept(Context{Caller: chain[0]}, id, chain[0]), ErrReferralCycle)

	// chain[i] -> chain[i+1]
	for i := 0; i < len(chain)-1; i++ {
		require.NoError(e.pool.Accept(Context{Caller: chain[i]}, id, chain[i+1]))
	}
	// closing the loop within the rewarded depth would pay an account twice
	for i := 1; i <= 4; i++ {
		require.ErrorIs(e.pool.Accept(Context{Caller: chain[len(chain)-1]}, id, chain[len(chain)-1-i]), ErrReferralCycle, "distance %d", i)
	}
	// a loop longer than the rewarded depth is harmless
	require.NoError(e.pool.Accept(Context{Caller: chain[len(chain)-1]}, id, chain[0]))

	require.Equal(chain[1:6], e.pool.Ancestors(chain[0]))
}
