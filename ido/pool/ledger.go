package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

// Deposit adds ctx.Value of the caller's native value to pool id.
//
// The amount joins the caller's balance, the pool total and today's deposit bucket,
// and the closing histories of both are checkpointed for today. Because the vesting
// calculator only reads closes of earlier days, a deposit never increases the share
// of the day it is made on.
func (p *Pool) Deposit(ctx Context, id uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		if err := p.guard.whenNotStopped(); err != nil {
			return err
		}
		amount := ctx.value()
		if amount.Sign() <= 0 {
			return errDepositValue
		}
		info, err := p.loadInfo(id)
		if err != nil {
			return err
		}
		if info.Matured(ctx.Time) {
			return errDepositEnded
		}
		if !ido.CanTransfer(p.db, ctx.Caller, amount) {
			return errDepositFunds
		}
		ido.Transfer(p.db, ctx.Caller, ContractAddress, amount)

		day := p.dayIndex(info, ctx.Time)
		p.setBalance(info, ctx.Caller, day, new(big.Int).Add(p.balanceOf(id, ctx.Caller), amount))
		p.setTotalDeposit(info, day, new(big.Int).Add(info.TotalDeposit, amount))
		p.setDailyDeposit(id, ctx.Caller, day, new(big.Int).Add(p.dailyDeposit(id, ctx.Caller, day), amount))

		if err := p.emit("Deposited", []common.Hash{bigTopic(id), ctx.Caller.Hash()}, amount); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"pool":    id,
			"account": ctx.Caller.Hex(),
			"amount":  amount,
			"day":     day,
		}).Debug("Deposited")
		return nil
	})
}

// BalanceOf returns the principal user holds in pool id.
func (p *Pool) BalanceOf(id uint64, user common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.loadInfo(id); err != nil {
		return nil, err
	}
	return p.balanceOf(id, user), nil
}

// TotalDeposit returns the sum of all balances in pool id.
func (p *Pool) TotalDeposit(id uint64) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := p.loadInfo(id)
	if err != nil {
		return nil, err
	}
	return info.TotalDeposit, nil
}

// DailyDeposit returns what user deposited into pool id during day, net of same-day withdrawals.
func (p *Pool) DailyDeposit(id uint64, user common.Address, day uint64) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.loadInfo(id); err != nil {
		return nil, err
	}
	return p.dailyDeposit(id, user, day), nil
}

// DayIndex returns the vesting day pool id is in at now.
func (p *Pool) DayIndex(id uint64, now uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, err := p.loadInfo(id)
	if err != nil {
		return 0, err
	}
	return p.dayIndex(info, now), nil
}

func (p *Pool) balanceOf(id uint64, user common.Address) *big.Int {
	return p.st.Big(userKey(slotBalance, id, user))
}

func (p *Pool) setBalance(info *Info, user common.Address, day uint64, balance *big.Int) {
	p.st.SetBig(userKey(slotBalance, info.ID, user), balance)
	p.balanceSeries(info.ID, user).record(day, balance)
}

func (p *Pool) setTotalDeposit(info *Info, day uint64, total *big.Int) {
	info.TotalDeposit = total
	p.st.SetBig(poolKey(slotTotalDeposit, info.ID), total)
	p.totalSeries(info.ID).record(day, total)
}

func (p *Pool) dailyDeposit(id uint64, user common.Address, day uint64) *big.Int {
	return p.st.Big(dayKey(slotDailyDeposit, id, user, day))
}

func (p *Pool) setDailyDeposit(id uint64, user common.Address, day uint64, amount *big.Int) {
	p.st.SetBig(dayKey(slotDailyDeposit, id, user, day), amount)
}
