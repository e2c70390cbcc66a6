package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVestingProportionalToPreviousClose funds a 180-day pool with 1800000, so
// every day releases 10000 split by the previous day's closing balances.
func TestVestingProportionalToPreviousClose(t *testing.T) {
	e := newTestEnv(t)
	a, b, c, d := addr(1), addr(2), addr(3), addr(4)
	e.fund(a, b, c, d)
	id := e.deploy(1_800_000, 180, 50)

	e.deposit(id, a, 40000, day(0))
	e.deposit(id, b, 30000, day(0))
	e.deposit(id, c, 20000, day(0))
	e.deposit(id, d, 10000, day(0)+100)

	for _, who := range []int{1, 2, 3, 4} {
		requireBig(t, 0, e.available(id, addr(who), day(1)-1))
	}

	e.deposit(id, a, 5000, day(1))
	e.deposit(id, c, 5000, day(1)+1)
	requireBig(t, 110000, e.total(id))

	requireBig(t, 4000, e.available(id, a, day(1)+2))
	requireBig(t, 3000, e.available(id, b, day(1)+2))
	requireBig(t, 2000, e.available(id, c, day(1)+2))
	requireBig(t, 1000, e.available(id, d, day(1)+2))

	// day 2 pays on the day-1 close: 45000/30000/25000/10000 of 110000
	requireBig(t, 4000+4090, e.available(id, a, day(2)))
	requireBig(t, 3000+2727, e.available(id, b, day(2)))
	requireBig(t, 2000+2272, e.available(id, c, day(2)))
	requireBig(t, 1000+909, e.available(id, d, day(2)))
}

func TestVestingStretchesMatchDailySum(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)
	a, b := addr(1), addr(2)
	e.fund(a, b)
	id := e.deploy(700, 7, 0) // 100 per day

	e.deposit(id, a, 1, day(0))
	e.deposit(id, b, 2, day(2))
	_, err := e.pool.Withdraw(Context{Caller: b, Time: day(2)}, id, bi(1))
	require.NoError(err)
	e.deposit(id, a, 3, day(4))

	// closes: a = 1,1,1,1,4,4,4  b = 0,0,1,1,1,1,1
	perDay := []int64{100, 100, 50, 50, 80, 80, 80}
	var want int64
	for k := uint64(1); k <= 7; k++ {
		want += perDay[k-1]
		requireBig(t, want, e.available(id, a, day(k)), "day %d", k)
	}

	// past maturity the release stops at durationDays
	requireBig(t, want, e.available(id, a, day(30)))
	unlocked, err := e.pool.Unlocked(id, a, day(30))
	require.NoError(err)
	requireBig(t, want, unlocked)
}

func TestVestingEmptyPool(t *testing.T) {
	e := newTestEnv(t)
	id := e.deploy(1000, 10, 0)
	requireBig(t, 0, e.available(id, addr(1), day(5)))

	_, err := e.pool.AvailableToExchange(id+1, addr(1), day(5))
	require.ErrorIs(t, err, ErrPoolNotFound)
}
