package pool

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-idopool/ido"
)

// Guard is the ownership and pause switch of the pool contract.
// It is created with the pool engine, toggled only by the owner and read by
// every gated operation. Its state lives in contract storage, so a reverted
// call also reverts a toggle.
type Guard struct {
	st ido.Storage
}

func newGuard(st ido.Storage) *Guard {
	return &Guard{st: st}
}

// init sets the first owner. It reports false if an owner was already stored.
func (g *Guard) init(owner common.Address) bool {
	if g.Owner() != (common.Address{}) {
		return false
	}
	g.st.SetAddress(ido.Key(slotOwner), owner)
	return true
}

// Owner returns the address allowed to run admin operations.
func (g *Guard) Owner() common.Address {
	return g.st.AddressAt(ido.Key(slotOwner))
}

// Stopped reports whether the pause switch is on.
func (g *Guard) Stopped() bool {
	return g.st.Bool(ido.Key(slotStopped))
}

func (g *Guard) onlyOwner(caller common.Address) error {
	if caller != g.Owner() {
		return errUnauthorized
	}
	return nil
}

func (g *Guard) whenNotStopped() error {
	if g.Stopped() {
		return errStopped
	}
	return nil
}

func (g *Guard) setStopped(v bool) {
	g.st.SetBool(ido.Key(slotStopped), v)
}

func (g *Guard) setOwner(owner common.Address) {
	g.st.SetAddress(ido.Key(slotOwner), owner)
}
