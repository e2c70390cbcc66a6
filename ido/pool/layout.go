package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-idopool/ido"
)

// Storage layout of the pool contract. Every slot is keccak256(field || key parts).
const (
	slotOwner     = "owner"
	slotStopped   = "stopped"
	slotPoolCount = "poolCount"

	slotStart        = "pool.start"
	slotDuration     = "pool.duration"
	slotFunded       = "pool.funded"
	slotDailyRelease = "pool.dailyRelease"
	slotRate         = "pool.rate"
	slotTotalDeposit = "pool.totalDeposit"
	slotReserve      = "pool.reserve"
	slotAdmin        = "pool.admin"
	slotOracle       = "pool.oracle"

	slotBalance      = "user.balance"
	slotDailyDeposit = "user.dailyDeposit"
	slotClaimed      = "user.claimed"

	slotReferrer = "referrer"

	seriesTotal   = "total"
	seriesBalance = "balance"
)

// Info is a pool's configuration and accounting as currently stored.
type Info struct {
	ID               uint64
	StartTime        uint64
	Duration         uint64
	TotalFunded      *big.Int
	DailyRelease     *big.Int
	RewardRatePermil uint64
	TotalDeposit     *big.Int
	Reserve          *big.Int
	Admin            common.Address
	Oracle           common.Address
}

// EndTime is the maturity instant.
func (i *Info) EndTime() uint64 {
	return i.StartTime + i.Duration
}

// Matured reports whether the pool is over at now.
func (i *Info) Matured(now uint64) bool {
	return now >= i.EndTime()
}

func poolKey(field string, id uint64) common.Hash {
	return ido.Key(field, ido.U64(id))
}

func userKey(field string, id uint64, user common.Address) common.Hash {
	return ido.Key(field, ido.U64(id), user.Bytes())
}

func dayKey(field string, id uint64, user common.Address, day uint64) common.Hash {
	return ido.Key(field, ido.U64(id), user.Bytes(), ido.U64(day))
}

// loadInfo reads pool id, failing with PoolNotFound when it was never deployed.
func (p *Pool) loadInfo(id uint64) (*Info, error) {
	if id == 0 || id > p.st.Uint64(ido.Key(slotPoolCount)) {
		return nil, errPoolNotFound
	}
	return &Info{
		ID:               id,
		StartTime:        p.st.Uint64(poolKey(slotStart, id)),
		Duration:         p.st.Uint64(poolKey(slotDuration, id)),
		TotalFunded:      p.st.Big(poolKey(slotFunded, id)),
		DailyRelease:     p.st.Big(poolKey(slotDailyRelease, id)),
		RewardRatePermil: p.st.Uint64(poolKey(slotRate, id)),
		TotalDeposit:     p.st.Big(poolKey(slotTotalDeposit, id)),
		Reserve:          p.st.Big(poolKey(slotReserve, id)),
		Admin:            p.st.AddressAt(poolKey(slotAdmin, id)),
		Oracle:           p.st.AddressAt(poolKey(slotOracle, id)),
	}, nil
}

// storeInfo writes every field of a freshly deployed pool.
func (p *Pool) storeInfo(i *Info) {
	p.st.SetUint64(poolKey(slotStart, i.ID), i.StartTime)
	p.st.SetUint64(poolKey(slotDuration, i.ID), i.Duration)
	p.st.SetBig(poolKey(slotFunded, i.ID), i.TotalFunded)
	p.st.SetBig(poolKey(slotDailyRelease, i.ID), i.DailyRelease)
	p.st.SetUint64(poolKey(slotRate, i.ID), i.RewardRatePermil)
	p.st.SetBig(poolKey(slotTotalDeposit, i.ID), i.TotalDeposit)
	p.st.SetBig(poolKey(slotReserve, i.ID), i.Reserve)
	p.st.SetAddress(poolKey(slotAdmin, i.ID), i.Admin)
	p.st.SetAddress(poolKey(slotOracle, i.ID), i.Oracle)
}

// checkpoint is the closing value of a series on a given day.
type checkpoint struct {
	day   uint64
	value *big.Int
}

// series is an append-only list of closing values, one entry per day on which the
// value changed. The value at the close of day d is the last entry with day <= d.
type series struct {
	st    ido.Storage
	name  string
	parts [][]byte
}

func (p *Pool) totalSeries(id uint64) series {
	return series{st: p.st, name: seriesTotal, parts: [][]byte{ido.U64(id)}}
}

func (p *Pool) balanceSeries(id uint64, user common.Address) series {
	return series{st: p.st, name: seriesBalance, parts: [][]byte{ido.U64(id), user.Bytes()}}
}

func (s series) key(field string, extra ...[]byte) common.Hash {
	parts := append(append([][]byte{}, s.parts...), extra...)
	return ido.Key(s.name+"."+field, parts...)
}

func (s series) len() uint64 {
	return s.st.Uint64(s.key("len"))
}

// record sets the closing value of day. Days must be recorded in non-decreasing order.
func (s series) record(day uint64, value *big.Int) {
	n := s.len()
	if n > 0 && s.st.Uint64(s.key("day", ido.U64(n-1))) == day {
		s.st.SetBig(s.key("value", ido.U64(n-1)), value)
		return
	}
	s.st.SetUint64(s.key("day", ido.U64(n)), day)
	s.st.SetBig(s.key("value", ido.U64(n)), value)
	s.st.SetUint64(s.key("len"), n+1)
}

// load returns every checkpoint in day order.
func (s series) load() []checkpoint {
	n := s.len()
	out := make([]checkpoint, n)
	for i := uint64(0); i < n; i++ {
		out[i] = checkpoint{
			day:   s.st.Uint64(s.key("day", ido.U64(i))),
			value: s.st.Big(s.key("value", ido.U64(i))),
		}
	}
	return out
}
