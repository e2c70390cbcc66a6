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

// Package evmcore runs the pool contract as a minimal chain: a state database,
// a genesis that deploys the pool with its token and oracle, and a state
// processor that applies blocks of signed transactions to the pool's ABI
// surface.
//
// Key concepts:
//   - EvmHeader/EvmBlock: one block per batch of calls, stamped with the block time
//     the pool uses as "now"
//   - StateProcessor: applies signed transactions and builds receipts
//   - Chain: the head block, its state and persistence through a Store
//
// Usage:
//   store := evmcore.NewMemoryStore()
//   chain, err := evmcore.NewChain(store, rules, evmcore.FakeGenesis(4))
//   block, receipts, results, err := chain.Apply(time, txs, nil)

package evmcore

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/trie"
)

// EvmHeader is the header of a pool chain block.
type EvmHeader struct {
	Number     *big.Int       // Block number (height in the chain)
	Hash       common.Hash    // Hash of the equivalent Ethereum header
	ParentHash common.Hash    // Hash of the parent block
	Root       common.Hash    // State root after the block
	TxHash     common.Hash    // Transactions root
	Time       uint64         // Block timestamp in seconds, the pool's notion of now
	Coinbase   common.Address // Account that sealed the block

	GasLimit uint64 // Always MaxUint64, gas is bounded per transaction
	GasUsed  uint64 // Total gas consumed by transactions in this block
}

// EvmBlock is a header plus the transactions it applied.
type EvmBlock struct {
	EvmHeader
	Transactions types.Transactions
}

// NewEvmBlock constructs a block from a header and transaction list and
// computes its transaction root.
func NewEvmBlock(h *EvmHeader, txs types.Transactions) *EvmBlock {
	b := &EvmBlock{
		EvmHeader:    *h,
		Transactions: txs,
	}

	if len(txs) == 0 {
		b.EvmHeader.TxHash = types.EmptyRootHash
	} else {
		b.EvmHeader.TxHash = types.DeriveSha(txs, trie.NewStackTrie(nil))
	}

	return b
}

// NextHeader returns the header of the child of h at time.
func (h *EvmHeader) NextHeader(time uint64, coinbase common.Address) *EvmHeader {
	return &EvmHeader{
		Number:     new(big.Int).Add(h.Number, common.Big1),
		ParentHash: h.Hash,
		Time:       time,
		Coinbase:   coinbase,
		GasLimit:   math.MaxUint64,
	}
}

// EthHeader converts h to the Ethereum header format. Seal fields are empty.
func (h *EvmHeader) EthHeader() *types.Header {
	if h == nil {
		return nil
	}
	return &types.Header{
		Number:      h.Number,
		Coinbase:    h.Coinbase,
		GasLimit:    h.GasLimit,
		GasUsed:     h.GasUsed,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ParentHash:  h.ParentHash,
		Time:        h.Time,
		UncleHash:   types.EmptyUncleHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  new(big.Int),
	}
}

// ConvertFromEthHeader converts an Ethereum header into the pool chain format.
func ConvertFromEthHeader(h *types.Header) *EvmHeader {
	return &EvmHeader{
		Number:     h.Number,
		Hash:       h.Hash(),
		Coinbase:   h.Coinbase,
		GasLimit:   math.MaxUint64,
		GasUsed:    h.GasUsed,
		Root:       h.Root,
		TxHash:     h.TxHash,
		ParentHash: h.ParentHash,
		Time:       h.Time,
	}
}

// seal fixes the state root and the block hash.
func (h *EvmHeader) seal(root common.Hash) {
	h.Root = root
	h.Hash = h.EthHeader().Hash()
}

// BlockContext is the execution context contracts see while the block is applied.
func (h *EvmHeader) BlockContext() vm.BlockContext {
	return vm.BlockContext{
		Coinbase:    h.Coinbase,
		GasLimit:    h.GasLimit,
		BlockNumber: new(big.Int).Set(h.Number),
		Time:        new(big.Int).SetUint64(h.Time),
		Difficulty:  new(big.Int),
	}
}
