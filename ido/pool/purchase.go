package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

// Reward is the payout of one ancestor in a purchase cascade.
type Reward struct {
	Rank     int
	Referrer common.Address
	Amount   *big.Int
}

// Receipt describes a completed purchase.
type Receipt struct {
	PoolID      uint64
	Buyer       common.Address
	Token       common.Address
	Amount      *big.Int
	TotalPrice  *big.Int
	TotalReward *big.Int // distributed to ancestors, zero without a referrer
	BuyerPayout *big.Int
	Rewards     []Reward
}

// Cascade splits totalReward between the ancestors of a buyer, nearest first.
// Every rank above the first receives RankSharePercent of the total; the direct
// referrer receives what is left, so the payouts always add up to totalReward.
// Ancestors beyond rules.Ranks receive nothing. Without ancestors nothing is split.
func Cascade(totalReward *big.Int, ancestors []common.Address, rules ido.RewardRules) []Reward {
	if len(ancestors) > rules.Ranks {
		ancestors = ancestors[:rules.Ranks]
	}
	if len(ancestors) == 0 {
		return nil
	}
	rewards := make([]Reward, len(ancestors))
	rest := new(big.Int).Set(totalReward)
	for i := len(ancestors) - 1; i >= 1; i-- {
		share := new(big.Int).Mul(totalReward, new(big.Int).SetUint64(rules.RankSharePercent))
		share.Div(share, big.NewInt(100))
		rest.Sub(rest, share)
		rewards[i] = Reward{Rank: i + 1, Referrer: ancestors[i], Amount: share}
	}
	rewards[0] = Reward{Rank: 1, Referrer: ancestors[0], Amount: rest}
	return rewards
}

// Buy exchanges amount of the caller's unlocked allocation in pool id for native
// value, paid for with token at the pool oracle's price.
//
// The token price is pulled from the buyer into the pool contract. A permil
// commission of amount is split up the buyer's referral chain and the buyer
// receives the rest; a buyer without a referrer receives all of amount. Any
// failure leaves token balances, native balances and logs untouched.
func (p *Pool) Buy(ctx Context, id uint64, token common.Address, amount *big.Int) (*Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var receipt *Receipt
	err := p.atomic(func() error {
		if err := p.guard.whenNotStopped(); err != nil {
			return err
		}
		info, err := p.loadInfo(id)
		if err != nil {
			return err
		}
		if ctx.Time < info.StartTime {
			return errBuyNotReady
		}
		if info.Matured(ctx.Time) {
			return errBuyEnded
		}
		if !ido.IsContract(p.db, token) || p.tokens == nil {
			return errBuyNotContract
		}
		if amount == nil || amount.Sign() <= 0 {
			return errBuyAmount
		}
		if amount.Cmp(p.available(info, ctx.Caller, ctx.Time)) > 0 {
			return errBuyAvailable
		}
		price := p.price(info, token)
		if price == nil || price.Sign() <= 0 {
			return errBuyPrice
		}
		totalPrice := new(big.Int).Mul(price, amount)
		totalPrice.Div(totalPrice, p.rules.PriceUnit())
		if totalPrice.Sign() == 0 {
			return errBuyAmount
		}
		erc20 := p.tokens.Token(token)
		if erc20.BalanceOf(ctx.Caller).Cmp(totalPrice) < 0 {
			return errBuyBalance
		}
		if erc20.Allowance(ctx.Caller, ContractAddress).Cmp(totalPrice) < 0 {
			return errBuyAllowance
		}
		if info.Reserve.Cmp(amount) < 0 || !ido.CanTransfer(p.db, ContractAddress, amount) {
			return errBuyReserve
		}
		if !erc20.TransferFrom(ContractAddress, ctx.Caller, ContractAddress, totalPrice) {
			return errBuyTokenPull
		}

		totalReward := new(big.Int).Mul(amount, new(big.Int).SetUint64(info.RewardRatePermil))
		totalReward.Div(totalReward, new(big.Int).SetUint64(ido.PermilBase))
		rewards := Cascade(totalReward, p.ancestors(ctx.Caller, p.rules.Reward.Ranks), p.rules.Reward)

		distributed := new(big.Int)
		for _, r := range rewards {
			if r.Amount.Sign() == 0 {
				continue
			}
			ido.Transfer(p.db, ContractAddress, r.Referrer, r.Amount)
			distributed.Add(distributed, r.Amount)
			err := p.emit("Rewarded",
				[]common.Hash{bigTopic(id), r.Referrer.Hash(), ctx.Caller.Hash()},
				big.NewInt(int64(r.Rank)), r.Amount)
			if err != nil {
				return err
			}
		}
		payout := new(big.Int).Sub(amount, distributed)
		ido.Transfer(p.db, ContractAddress, ctx.Caller, payout)

		p.setClaimed(id, ctx.Caller, new(big.Int).Add(p.claimed(id, ctx.Caller), amount))
		p.st.SetBig(poolKey(slotReserve, id), new(big.Int).Sub(info.Reserve, amount))

		err = p.emit("Purchased",
			[]common.Hash{bigTopic(id), ctx.Caller.Hash(), token.Hash()},
			amount, totalPrice, distributed)
		if err != nil {
			return err
		}
		receipt = &Receipt{
			PoolID:      id,
			Buyer:       ctx.Caller,
			Token:       token,
			Amount:      new(big.Int).Set(amount),
			TotalPrice:  totalPrice,
			TotalReward: distributed,
			BuyerPayout: payout,
			Rewards:     rewards,
		}
		p.log.WithFields(logrus.Fields{
			"pool":   id,
			"buyer":  ctx.Caller.Hex(),
			"token":  token.Hex(),
			"amount": amount,
			"price":  totalPrice,
			"reward": distributed,
			"ranks":  len(rewards),
		}).Debug("Purchased")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (p *Pool) price(info *Info, token common.Address) *big.Int {
	if p.oracles == nil {
		return nil
	}
	oracle := p.oracles.Oracle(info.Oracle)
	if oracle == nil {
		return nil
	}
	return oracle.Price(token)
}
