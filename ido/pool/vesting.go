package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AvailableToExchange returns how much of the reward reservoir user may still buy
// from pool id at now: everything unlocked so far minus what earlier purchases used.
func (p *Pool) AvailableToExchange(id uint64, user common.Address, now uint64) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := p.loadInfo(id)
	if err != nil {
		return nil, err
	}
	return p.available(info, user, now), nil
}

// Unlocked returns the cumulative amount released to user by pool id at now.
func (p *Pool) Unlocked(id uint64, user common.Address, now uint64) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := p.loadInfo(id)
	if err != nil {
		return nil, err
	}
	return p.unlocked(info, user, now), nil
}

// Claimed returns the cumulative amount user bought from pool id.
func (p *Pool) Claimed(id uint64, user common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.loadInfo(id); err != nil {
		return nil, err
	}
	return p.claimed(id, user), nil
}

func (p *Pool) available(info *Info, user common.Address, now uint64) *big.Int {
	avail := p.unlocked(info, user, now)
	avail.Sub(avail, p.claimed(info.ID, user))
	if avail.Sign() < 0 {
		return new(big.Int)
	}
	return avail
}

func (p *Pool) claimed(id uint64, user common.Address) *big.Int {
	return p.st.Big(userKey(slotClaimed, id, user))
}

func (p *Pool) setClaimed(id uint64, user common.Address, v *big.Int) {
	p.st.SetBig(userKey(slotClaimed, id, user), v)
}

// unlocked sums, for every elapsed day k in [1, d], the installment
// dailyRelease * userClose(k-1) / totalClose(k-1), truncated per day.
//
// Both closing histories only change on days with a checkpoint, so the sweep walks
// the merged checkpoints and credits each constant stretch of days at once. The
// per-day share is identical across a stretch, so this equals the day-by-day sum.
func (p *Pool) unlocked(info *Info, user common.Address, now uint64) *big.Int {
	sum := new(big.Int)
	d := p.dayIndex(info, now)
	if days := p.durationDays(info); d > days {
		d = days
	}
	if d == 0 || info.DailyRelease.Sign() == 0 {
		return sum
	}
	users := p.balanceSeries(info.ID, user).load()
	totals := p.totalSeries(info.ID).load()

	var (
		ui, ti int
		u, t   = new(big.Int), new(big.Int)
	)
	// day is a closing day; its close pays out on day+1, so closes 0..d-1 count.
	for day := uint64(0); day < d; {
		for ui < len(users) && users[ui].day <= day {
			u = users[ui].value
			ui++
		}
		for ti < len(totals) && totals[ti].day <= day {
			t = totals[ti].value
			ti++
		}
		next := d
		if ui < len(users) && users[ui].day < next {
			next = users[ui].day
		}
		if ti < len(totals) && totals[ti].day < next {
			next = totals[ti].day
		}
		if u.Sign() > 0 && t.Sign() > 0 {
			share := new(big.Int).Mul(info.DailyRelease, u)
			share.Div(share, t)
			share.Mul(share, new(big.Int).SetUint64(next-day))
			sum.Add(sum, share)
		}
		day = next
	}
	return sum
}
