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
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
)

// headKey stores the RLP of the head header.
var headKey = []byte("idopool-head")

// Store is the key-value database behind a pool chain: trie nodes plus the head header.
type Store struct {
	db  ethdb.Database
	sdb state.Database
}

// NewMemoryStore returns a store that lives in memory only.
func NewMemoryStore() *Store {
	return newStore(rawdb.NewMemoryDatabase())
}

// OpenStore opens the LevelDB store under datadir, creating it if needed.
func OpenStore(datadir string, cacheMB, handles int) (*Store, error) {
	db, err := rawdb.NewLevelDBDatabase(filepath.Join(datadir, "chaindata"), cacheMB, handles, "idopool/db/", false)
	if err != nil {
		return nil, err
	}
	return newStore(db), nil
}

func newStore(db ethdb.Database) *Store {
	return &Store{db: db, sdb: state.NewDatabase(db)}
}

// State opens the state at root.
func (s *Store) State(root common.Hash) (*state.StateDB, error) {
	return state.New(root, s.sdb, nil)
}

// Head returns the stored head header, or nil for an empty store.
func (s *Store) Head() (*EvmHeader, error) {
	ok, err := s.db.Has(headKey)
	if err != nil || !ok {
		return nil, err
	}
	data, err := s.db.Get(headKey)
	if err != nil {
		return nil, err
	}
	var h EvmHeader
	if err := rlp.DecodeBytes(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// WriteHead records h as the head.
func (s *Store) WriteHead(h *EvmHeader) error {
	if h == nil {
		return errors.New("nil head")
	}
	data, err := rlp.EncodeToBytes(h)
	if err != nil {
		return err
	}
	return s.db.Put(headKey, data)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
