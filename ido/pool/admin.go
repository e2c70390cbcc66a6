package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

// Deploy creates a new pool funded with ctx.Value and returns its id.
//
// The funding is the reward reservoir; it is released in durationDays equal
// installments of dailyRelease, truncated. The caller becomes the pool admin.
func (p *Pool) Deploy(ctx Context, startTime, duration, rewardRatePermil uint64, oracle common.Address) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var id uint64
	err := p.atomic(func() error {
		if err := p.guard.onlyOwner(ctx.Caller); err != nil {
			return err
		}
		if err := p.guard.whenNotStopped(); err != nil {
			return err
		}
		funded := ctx.value()
		if funded.Sign() <= 0 {
			return errDeployValue
		}
		if startTime < ctx.Time {
			return errDeployStart
		}
		if duration < p.rules.Deploy.MinDurationDays*p.rules.DayLength {
			return errDeployDuration
		}
		if startTime+duration < startTime {
			return errDeployEnd
		}
		if rewardRatePermil > p.rules.Deploy.MaxRewardRatePermil {
			return errDeployRate
		}
		if !ido.IsContract(p.db, oracle) {
			return errDeployOracle
		}
		if !ido.CanTransfer(p.db, ctx.Caller, funded) {
			return errDeployFunds
		}
		ido.Transfer(p.db, ctx.Caller, ContractAddress, funded)

		id = p.st.Uint64(ido.Key(slotPoolCount)) + 1
		p.st.SetUint64(ido.Key(slotPoolCount), id)
		info := &Info{
			ID:               id,
			StartTime:        startTime,
			Duration:         duration,
			TotalFunded:      new(big.Int).Set(funded),
			RewardRatePermil: rewardRatePermil,
			TotalDeposit:     new(big.Int),
			Reserve:          new(big.Int).Set(funded),
			Admin:            ctx.Caller,
			Oracle:           oracle,
		}
		info.DailyRelease = new(big.Int).Div(funded, new(big.Int).SetUint64(p.durationDays(info)))
		p.storeInfo(info)

		err := p.emit("Deployed", []common.Hash{bigTopic(id), ctx.Caller.Hash()},
			new(big.Int).SetUint64(startTime),
			new(big.Int).SetUint64(duration),
			info.TotalFunded,
			info.DailyRelease,
			new(big.Int).SetUint64(rewardRatePermil),
			oracle)
		if err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"pool":     id,
			"start":    startTime,
			"duration": duration,
			"funded":   funded,
			"daily":    info.DailyRelease,
			"rate":     rewardRatePermil,
			"oracle":   oracle.Hex(),
		}).Info("Pool deployed")
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Transfer sends amount of token held by the pool contract to to.
// It is how the owner collects the purchase proceeds.
func (p *Pool) Transfer(ctx Context, token, to common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		if err := p.guard.onlyOwner(ctx.Caller); err != nil {
			return err
		}
		if !ido.IsContract(p.db, token) || p.tokens == nil {
			return errTransferNotCtr
		}
		if amount == nil || amount.Sign() <= 0 {
			return errTransferAmount
		}
		erc20 := p.tokens.Token(token)
		if erc20.BalanceOf(ContractAddress).Cmp(amount) < 0 {
			return errTransferBalance
		}
		if !erc20.Transfer(ContractAddress, to, amount) {
			return errTransferFailed
		}
		if err := p.emit("Transferred", []common.Hash{token.Hash(), to.Hash()}, amount); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"token":  token.Hex(),
			"to":     to.Hex(),
			"amount": amount,
		}).Info("Tokens transferred")
		return nil
	})
}

// Refund sends amount of native value held by the pool contract to to.
// The custody balance is shared by every pool's principal and reservoir.
func (p *Pool) Refund(ctx Context, to common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		if err := p.guard.onlyOwner(ctx.Caller); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return errRefundAmount
		}
		if !ido.CanTransfer(p.db, ContractAddress, amount) {
			return errRefundBalance
		}
		ido.Transfer(p.db, ContractAddress, to, amount)
		if err := p.emit("Refunded", []common.Hash{to.Hash()}, amount); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"to":     to.Hex(),
			"amount": amount,
		}).Info("Refunded")
		return nil
	})
}

// Stop turns the pause switch on.
func (p *Pool) Stop(ctx Context) error {
	return p.toggle(ctx, true)
}

// Start turns the pause switch off.
func (p *Pool) Start(ctx Context) error {
	return p.toggle(ctx, false)
}

func (p *Pool) toggle(ctx Context, stopped bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	event := "Started"
	if stopped {
		event = "Stopped"
	}
	return p.atomic(func() error {
		if err := p.guard.onlyOwner(ctx.Caller); err != nil {
			return err
		}
		p.guard.setStopped(stopped)
		if err := p.emit(event, nil, ctx.Caller); err != nil {
			return err
		}
		p.log.WithField("by", ctx.Caller.Hex()).Info(event)
		return nil
	})
}

// TransferOwnership hands the admin role to newOwner.
func (p *Pool) TransferOwnership(ctx Context, newOwner common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		if err := p.guard.onlyOwner(ctx.Caller); err != nil {
			return err
		}
		if newOwner == (common.Address{}) {
			return errOwnerZero
		}
		previous := p.guard.Owner()
		p.guard.setOwner(newOwner)
		if err := p.emit("OwnershipTransferred", []common.Hash{previous.Hash(), newOwner.Hash()}); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"previous": previous.Hex(),
			"owner":    newOwner.Hex(),
		}).Info("Ownership transferred")
		return nil
	})
}
