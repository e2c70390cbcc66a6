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
	"fmt"
	"math"
	"math/big"
	"math/rand"

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

// FakeGenesisTime is the default timestamp of fake genesis blocks.
// Timestamp: 1608600000 seconds since Unix epoch (December 22, 2020)
const FakeGenesisTime uint64 = 1608600000

// FakeChainID signs the transactions of fake chains.
const FakeChainID = 0xfa3

var (
	// TokenAddress is where the genesis deploys the payment token.
	TokenAddress = common.HexToAddress("0xd1d0000000000000000000000000000000000002")
	// OracleAddress is where the genesis deploys the price oracle.
	OracleAddress = common.HexToAddress("0xd1d0000000000000000000000000000000000003")
)

// Genesis describes the initial state of a pool chain.
type Genesis struct {
	Time  uint64
	Owner common.Address // owner of the pool, minter of the token and oracle admin

	Balances map[common.Address]*big.Int // native value

	TokenName     string
	TokenSymbol   string
	TokenDecimals uint8
	TokenBalances map[common.Address]*big.Int

	// Price of one native unit in token units, set on the oracle for the token.
	Price *big.Int
}

// FakeGenesis funds fake accounts 0 to accounts-1 with 1,000,000 native units
// and as many tokens each. Account 0 owns every contract. The token is quoted
// at one token per native unit.
func FakeGenesis(accounts int) *Genesis {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	funds := new(big.Int).Mul(big.NewInt(1_000_000), unit)
	g := &Genesis{
		Time:          FakeGenesisTime,
		Owner:         FakeAddress(0),
		Balances:      make(map[common.Address]*big.Int, accounts),
		TokenName:     "Test Token",
		TokenSymbol:   "TEST",
		TokenDecimals: 18,
		TokenBalances: make(map[common.Address]*big.Int, accounts),
		Price:         unit,
	}
	for i := 0; i < accounts; i++ {
		g.Balances[FakeAddress(i)] = funds
		g.TokenBalances[FakeAddress(i)] = funds
	}
	return g
}

// ApplyGenesis writes g into statedb and returns the genesis block.
//
// Process:
//  1. Sets the native balances
//  2. Deploys the token and mints the token balances
//  3. Deploys the oracle and quotes the token
//  4. Installs the pool contract owned by g.Owner
//  5. Commits the state and builds block 0 on its root
func ApplyGenesis(statedb *state.StateDB, rules ido.Rules, g *Genesis) (*EvmBlock, error) {
	for acc, balance := range g.Balances {
		statedb.SetBalance(acc, balance)
	}

	token, err := erc20.Deploy(statedb, TokenAddress, g.TokenName, g.TokenSymbol, g.TokenDecimals, g.Owner)
	if err != nil {
		return nil, fmt.Errorf("genesis token: %w", err)
	}
	for acc, balance := range g.TokenBalances {
		if err := token.Mint(g.Owner, acc, balance); err != nil {
			return nil, fmt.Errorf("genesis mint: %w", err)
		}
	}

	o, err := oracle.Deploy(statedb, OracleAddress, g.Owner)
	if err != nil {
		return nil, fmt.Errorf("genesis oracle: %w", err)
	}
	if g.Price != nil && g.Price.Sign() > 0 {
		if err := o.SetPrice(g.Owner, TokenAddress, g.Price); err != nil {
			return nil, fmt.Errorf("genesis price: %w", err)
		}
	}

	if _, err := pool.New(statedb, rules, g.Owner, erc20.NewRegistry(statedb), oracle.NewRegistry(statedb)); err != nil {
		return nil, fmt.Errorf("genesis pool: %w", err)
	}

	root, err := flush(statedb, true)
	if err != nil {
		return nil, err
	}
	block := genesisBlock(g.Time, root)

	logrus.WithFields(logrus.Fields{
		"module":   "genesis",
		"root":     root.Hex(),
		"accounts": len(g.Balances),
		"owner":    g.Owner.Hex(),
	}).Info("Applied genesis")
	return block, nil
}

// flush commits state changes to the database and returns the state root hash.
//
// The 'clean' parameter controls whether to perform a clean commit:
//   - clean=true: full commit, used for genesis initialization
//   - clean=false: incremental commit with trie capping for memory management
func flush(statedb *state.StateDB, clean bool) (root common.Hash, err error) {
	root, err = statedb.Commit(clean)
	if err != nil {
		return
	}

	err = statedb.Database().TrieDB().Commit(root, false, nil)
	if err != nil {
		return
	}

	if !clean {
		err = statedb.Database().TrieDB().Cap(0)
	}

	return
}

// genesisBlock creates block 0 on root.
func genesisBlock(time uint64, root common.Hash) *EvmBlock {
	block := &EvmBlock{
		EvmHeader: EvmHeader{
			Number:   big.NewInt(0),
			Time:     time,
			GasLimit: math.MaxUint64,
			TxHash:   types.EmptyRootHash,
		},
	}
	block.seal(root)

	return block
}

// MustApplyGenesis is ApplyGenesis that panics on error.
func MustApplyGenesis(statedb *state.StateDB, rules ido.Rules, g *Genesis) *EvmBlock {
	block, err := ApplyGenesis(statedb, rules, g)
	if err != nil {
		logrus.WithError(err).Panic("ApplyGenesis")
	}
	return block
}

// FakeKey generates a deterministic fake private key for testing purposes.
// Given the same n, it always returns the same key.
func FakeKey(n int) *ecdsa.PrivateKey {
	reader := rand.New(rand.NewSource(int64(n)))

	key, err := ecdsa.GenerateKey(crypto.S256(), reader)
	if err != nil {
		panic(err)
	}

	return key
}

// FakeAddress is the address of FakeKey(n).
func FakeAddress(n int) common.Address {
	return crypto.PubkeyToAddress(FakeKey(n).PublicKey)
}
