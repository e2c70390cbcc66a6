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
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/ido/contracts/erc20"
	"github.com/rony4d/go-idopool/ido/contracts/oracle"
	"github.com/rony4d/go-idopool/ido/contracts/poolcontract"
	"github.com/rony4d/go-idopool/ido/pool"
)

var (
	// ErrNoPool is returned when the state has no pool contract installed.
	ErrNoPool = errors.New("state has no pool contract")
	// ErrUnknownRecipient is returned for a transaction not addressed to the pool contract.
	ErrUnknownRecipient = errors.New("transaction recipient is not the pool contract")
	// ErrNonce is returned for a transaction whose nonce does not follow the sender's.
	ErrNonce = errors.New("invalid nonce")
)

// ExecutionResult is the outcome of one applied transaction.
type ExecutionResult struct {
	UsedGas    uint64
	Err        error  // vm.ErrExecutionReverted, vm.ErrOutOfGas or nil
	ReturnData []byte // outputs, or the revert payload
}

// Failed reports whether the call was rejected.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// Revert returns the revert payload of a rejected call.
func (r *ExecutionResult) Revert() []byte {
	if r.Err == nil {
		return nil
	}
	return common.CopyBytes(r.ReturnData)
}

// StateProcessor applies blocks of pool transactions to a state.
type StateProcessor struct {
	statedb  *state.StateDB
	pool     *pool.Pool
	contract *poolcontract.Contract
	signer   types.Signer
	log      *logrus.Entry
}

// NewStateProcessor binds the pool contract installed in statedb.
func NewStateProcessor(statedb *state.StateDB, rules ido.Rules, chainID *big.Int) (*StateProcessor, error) {
	if !ido.IsContract(statedb, pool.ContractAddress) {
		return nil, ErrNoPool
	}
	p, err := pool.New(statedb, rules, common.Address{}, erc20.NewRegistry(statedb), oracle.NewRegistry(statedb))
	if err != nil {
		return nil, err
	}
	p.SetLogger(logrus.WithFields(logrus.Fields{"module": "pool", "rules": rules.Name}))
	return &StateProcessor{
		statedb:  statedb,
		pool:     p,
		contract: poolcontract.New(p),
		signer:   types.LatestSignerForChainID(chainID),
		log:      logrus.WithField("module", "processor"),
	}, nil
}

// Pool returns the pool engine bound to the processor's state.
func (p *StateProcessor) Pool() *pool.Pool {
	return p.pool
}

// Contract returns the ABI surface of the pool.
func (p *StateProcessor) Contract() *poolcontract.Contract {
	return p.contract
}

// Signer returns the transaction signer of the chain.
func (p *StateProcessor) Signer() types.Signer {
	return p.signer
}

// Process applies the transactions of block in order.
//
// Every transaction is checked up front: it must be signed for this chain, sent
// to the pool contract, and carry the next nonce of its sender. A block failing
// the checks changes nothing. A reverted call is not an error: it is reported
// with a failed receipt and its state changes are rolled back by the pool.
func (p *StateProcessor) Process(block *EvmBlock) (types.Receipts, []*ExecutionResult, uint64, error) {
	senders, err := p.validate(block.Transactions)
	if err != nil {
		return nil, nil, 0, err
	}

	var (
		receipts = make(types.Receipts, 0, len(block.Transactions))
		results  = make([]*ExecutionResult, 0, len(block.Transactions))
		gasUsed  uint64
		bctx     = block.BlockContext()
	)
	for i, tx := range block.Transactions {
		from := senders[i]
		logsBefore := len(p.statedb.Logs())

		ret, left, vmerr := p.contract.Run(bctx, from, tx.Value(), tx.Data(), tx.Gas())
		p.statedb.SetNonce(from, tx.Nonce()+1)

		used := tx.Gas() - left
		gasUsed += used
		result := &ExecutionResult{UsedGas: used, Err: vmerr, ReturnData: ret}
		results = append(results, result)

		receipt := &types.Receipt{
			Type:              tx.Type(),
			CumulativeGasUsed: gasUsed,
			TxHash:            tx.Hash(),
			GasUsed:           used,
			BlockNumber:       new(big.Int).Set(block.Number),
			TransactionIndex:  uint(i),
		}
		if vmerr != nil {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			receipt.Status = types.ReceiptStatusSuccessful
		}
		logs := p.statedb.Logs()
		for _, l := range logs[logsBefore:] {
			l.BlockNumber = block.Number.Uint64()
			l.TxHash = tx.Hash()
			l.TxIndex = uint(i)
			receipt.Logs = append(receipt.Logs, l)
		}
		receipt.Bloom = types.CreateBloom(types.Receipts{receipt})
		receipts = append(receipts, receipt)

		entry := p.log.WithFields(logrus.Fields{
			"block": block.Number,
			"from":  from.Hex(),
			"gas":   used,
		})
		if vmerr != nil {
			reason, _ := poolcontract.Reason(ret)
			entry.WithField("reason", reason).Debug("Transaction reverted")
		} else {
			entry.Debug("Transaction applied")
		}
	}
	return receipts, results, gasUsed, nil
}

func (p *StateProcessor) validate(txs types.Transactions) ([]common.Address, error) {
	senders := make([]common.Address, len(txs))
	nonces := make(map[common.Address]uint64)
	for i, tx := range txs {
		from, err := types.Sender(p.signer, tx)
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		if tx.To() == nil || *tx.To() != pool.ContractAddress {
			return nil, fmt.Errorf("tx %d: %w", i, ErrUnknownRecipient)
		}
		next, ok := nonces[from]
		if !ok {
			next = p.statedb.GetNonce(from)
		}
		if tx.Nonce() != next {
			return nil, fmt.Errorf("tx %d: %w: have %d, want %d", i, ErrNonce, tx.Nonce(), next)
		}
		nonces[from] = next + 1
		senders[i] = from
	}
	return senders, nil
}
