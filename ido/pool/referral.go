package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
)

// Accept binds the caller to referrer, once and for ever.
//
// The referrer must hold a deposit in pool id at the time of the call. The registry
// is a flat child -> parent mapping shared by all pools. Binding is refused when it
// would put the caller among its own rewarded ancestors.
func (p *Pool) Accept(ctx Context, id uint64, referrer common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		if _, err := p.loadInfo(id); err != nil {
			return err
		}
		if p.balanceOf(id, referrer).Sign() == 0 {
			return errAcceptNotDeposited
		}
		if p.referrerOf(ctx.Caller) != (common.Address{}) {
			return errAcceptAccepted
		}
		if referrer == ctx.Caller {
			return errAcceptCycle
		}
		for _, ancestor := range p.ancestors(referrer, p.rules.Reward.Ranks-1) {
			if ancestor == ctx.Caller {
				return errAcceptCycle
			}
		}
		p.st.SetAddress(ido.Key(slotReferrer, ctx.Caller.Bytes()), referrer)

		if err := p.emit("Accepted", []common.Hash{bigTopic(id), ctx.Caller.Hash(), referrer.Hash()}); err != nil {
			return err
		}
		p.log.WithFields(logrus.Fields{
			"pool":     id,
			"account":  ctx.Caller.Hex(),
			"referrer": referrer.Hex(),
		}).Debug("Accepted invitation")
		return nil
	})
}

// ReferrerOf returns the referrer user is bound to, or the zero address.
func (p *Pool) ReferrerOf(user common.Address) common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.referrerOf(user)
}

// Ancestors returns the rewarded referral chain of user, nearest first.
func (p *Pool) Ancestors(user common.Address) []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ancestors(user, p.rules.Reward.Ranks)
}

func (p *Pool) referrerOf(user common.Address) common.Address {
	return p.st.AddressAt(ido.Key(slotReferrer, user.Bytes()))
}

// ancestors follows at most limit referrer hops from user.
func (p *Pool) ancestors(user common.Address, limit int) []common.Address {
	chain := make([]common.Address, 0, limit)
	for cur := user; len(chain) < limit; {
		next := p.referrerOf(cur)
		if next == (common.Address{}) {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	return chain
}
