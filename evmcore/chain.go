// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package evmcore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/ido/contracts/erc20"
	"github.com/rony4d/go-idopool/ido/contracts/oracle"
	"github.com/rony4d/go-idopool/ido/pool"
)

// ErrTimeTravel is returned for a block older than the head.
var ErrTimeTravel = errors.New("block time before head time")

// SystemFunc mutates the state at the start of a block outside any transaction,
// the way genesis does. It is how tokens are minted or prices quoted.
type SystemFunc func(statedb *state.StateDB) error

// Chain is the head of a pool chain over a Store.
type Chain struct {
	mu sync.Mutex

	store   *Store
	rules   ido.Rules
	chainID *big.Int
	statedb *state.StateDB
	head    *EvmHeader
	proc    *StateProcessor

	log *logrus.Entry
}

// NewChain opens the chain in store. An empty store is initialized from genesis;
// otherwise genesis is ignored and the stored head is resumed.
func NewChain(store *Store, rules ido.Rules, genesis *Genesis) (*Chain, error) {
	c := &Chain{
		store:   store,
		rules:   rules,
		chainID: big.NewInt(FakeChainID),
		log:     logrus.WithField("module", "chain"),
	}
	head, err := store.Head()
	if err != nil {
		return nil, fmt.Errorf("read head: %w", err)
	}
	if head == nil {
		if genesis == nil {
			return nil, errors.New("empty store and no genesis")
		}
		statedb, err := store.State(common.Hash{})
		if err != nil {
			return nil, err
		}
		block, err := ApplyGenesis(statedb, rules, genesis)
		if err != nil {
			return nil, err
		}
		if err := store.WriteHead(&block.EvmHeader); err != nil {
			return nil, err
		}
		head = &block.EvmHeader
	} else {
		c.log.WithFields(logrus.Fields{"number": head.Number, "root": head.Root.Hex()}).Info("Resuming chain")
	}
	if err := c.reset(head); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) reset(head *EvmHeader) error {
	statedb, err := c.store.State(head.Root)
	if err != nil {
		return fmt.Errorf("open state %s: %w", head.Root.Hex(), err)
	}
	proc, err := NewStateProcessor(statedb, c.rules, c.chainID)
	if err != nil {
		return err
	}
	c.statedb, c.head, c.proc = statedb, head, proc
	return nil
}

// Head returns the current head header.
func (c *Chain) Head() *EvmHeader {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := *c.head
	return &h
}

// ChainID returns the id transactions are signed for.
func (c *Chain) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Rules returns the pool rules of the chain.
func (c *Chain) Rules() ido.Rules {
	return c.rules
}

// Processor returns the state processor of the head state.
func (c *Chain) Processor() *StateProcessor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc
}

// Pool returns the pool engine over the head state.
func (c *Chain) Pool() *pool.Pool {
	return c.Processor().Pool()
}

// State returns the head state. Mutating it outside Apply is not persisted.
func (c *Chain) State() *state.StateDB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statedb
}

// Token binds the token at addr in the head state.
func (c *Chain) Token(addr common.Address) (*erc20.Token, error) {
	return erc20.At(c.State(), addr)
}

// Oracle binds the oracle at addr in the head state.
func (c *Chain) Oracle(addr common.Address) (*oracle.Oracle, error) {
	return oracle.At(c.State(), addr)
}

// Nonce returns the next nonce of addr.
func (c *Chain) Nonce(addr common.Address) uint64 {
	return c.State().GetNonce(addr)
}

// Apply seals a new block at time: system runs first, then txs are processed,
// then the state is committed and the block becomes the head.
func (c *Chain) Apply(time uint64, txs types.Transactions, system SystemFunc) (*EvmBlock, types.Receipts, []*ExecutionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time < c.head.Time {
		return nil, nil, nil, fmt.Errorf("%w: %d < %d", ErrTimeTravel, time, c.head.Time)
	}
	block := NewEvmBlock(c.head.NextHeader(time, common.Address{}), txs)

	if system != nil {
		if err := system(c.statedb); err != nil {
			return nil, nil, nil, c.abort(err)
		}
	}
	receipts, results, gasUsed, err := c.proc.Process(block)
	if err != nil {
		return nil, nil, nil, c.abort(err)
	}
	block.GasUsed = gasUsed

	root, err := flush(c.statedb, false)
	if err != nil {
		return nil, nil, nil, err
	}
	block.seal(root)
	for _, r := range receipts {
		r.BlockHash = block.Hash
		for _, l := range r.Logs {
			l.BlockHash = block.Hash
		}
	}
	if err := c.store.WriteHead(&block.EvmHeader); err != nil {
		return nil, nil, nil, err
	}
	c.head = &block.EvmHeader

	c.log.WithFields(logrus.Fields{
		"number": block.Number,
		"txs":    len(txs),
		"gas":    gasUsed,
		"root":   root.Hex(),
	}).Debug("Block applied")
	return block, receipts, results, nil
}

// abort discards uncommitted changes by reopening the head state.
func (c *Chain) abort(cause error) error {
	if err := c.reset(c.head); err != nil {
		return fmt.Errorf("%v (reset: %w)", cause, err)
	}
	return cause
}

// SignCall signs a call of the pool contract from key with its next nonce.
func (c *Chain) SignCall(key *ecdsa.PrivateKey, value *big.Int, gas uint64, data []byte) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	return NewCall(c.Processor().Signer(), key, c.Nonce(from), value, gas, data)
}

// NewCall builds and signs a call of the pool contract.
func NewCall(signer types.Signer, key *ecdsa.PrivateKey, nonce uint64, value *big.Int, gas uint64, data []byte) (*types.Transaction, error) {
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTransaction(nonce, pool.ContractAddress, value, gas, new(big.Int), data)
	return types.SignTx(tx, signer, key)
}
