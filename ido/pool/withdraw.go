package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

var errWithdrawCustody = revert(ErrInsufficientBalance, "IDOPool::withdraw: balance is insufficient")

// Withdraw returns principal from pool id to the caller and reports how much was paid.
//
// While the pool is active (now < endTime, including before it starts) the caller
// may only take back up to what they deposited today. Once the pool has matured the
// whole remaining balance is paid and amount is ignored; a caller with nothing left
// gets NothingToWithdraw.
func (p *Pool) Withdraw(ctx Context, id uint64, amount *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var paid *big.Int
	err := p.atomic(func() error {
		if err := p.guard.whenNotStopped(); err != nil {
			return err
		}
		info, err := p.loadInfo(id)
		if err != nil {
			return err
		}
		day := p.dayIndex(info, ctx.Time)
		balance := p.balanceOf(id, ctx.Caller)

		if info.Matured(ctx.Time) {
			if balance.Sign() == 0 {
				return errWithdrawNothing
			}
			paid = new(big.Int).Set(balance)
		} else {
			if amount == nil || amount.Sign() <= 0 {
				return errWithdrawAmount
			}
			today := p.dailyDeposit(id, ctx.Caller, day)
			if amount.Cmp(today) > 0 {
				return errWithdrawToday
			}
			paid = new(big.Int).Set(amount)
			p.setDailyDeposit(id, ctx.Caller, day, today.Sub(today, paid))
		}
		if !ido.CanTransfer(p.db, ContractAddress, paid) {
			return errWithdrawCustody
		}

		p.setBalance(info, ctx.Caller, day, new(big.Int).Sub(balance, paid))
		p.setTotalDeposit(info, day, new(big.Int).Sub(info.TotalDeposit, paid))
		ido.Transfer(p.db, ContractAddress, ctx.Caller, paid)

		if err := p.emit("Withdrawn", []common.Hash{bigTopic(id), ctx.Caller.Hash()}, paid); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"pool":    id,
			"account": ctx.Caller.Hex(),
			"amount":  paid,
			"matured": info.Matured(ctx.Time),
		}).Debug("Withdrawn")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
