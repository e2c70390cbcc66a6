package erc20

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000e2c20")
	minter    = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	alice     = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	bob       = common.HexToAddress("0x0000000000000000000000000000000000000a03")
)

func newState(t *testing.T) *state.StateDB {
	db, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	require.NoError(t, err)
	return db
}

func TestDeploy(t *testing.T) {
	require := require.New(t)
	db := newState(t)

	tok, err := Deploy(db, tokenAddr, "Test Token", "TEST", 18, minter)
	require.NoError(err)
	require.Equal("Test Token", tok.Name())
	require.Equal("TEST", tok.Symbol())
	require.Equal(uint8(18), tok.Decimals())
	require.Equal(minter, tok.Minter())
	require.Greater(db.GetCodeSize(tokenAddr), 0)

	_, err = Deploy(db, tokenAddr, "Again", "AGN", 18, minter)
	require.ErrorIs(err, ErrDeployed)
	_, err = Deploy(db, alice, "a name that is much too long for a slot", "X", 18, minter)
	require.ErrorIs(err, ErrNameTooLong)

	again, err := At(db, tokenAddr)
	require.NoError(err)
	require.Equal("TEST", again.Symbol())
	_, err = At(db, bob)
	require.ErrorIs(err, ErrNotAToken)
}

func TestTransfers(t *testing.T) {
	require := require.New(t)
	db := newState(t)
	tok, err := Deploy(db, tokenAddr, "Test Token", "TEST", 18, minter)
	require.NoError(err)

	require.ErrorIs(tok.Mint(alice, alice, big.NewInt(1)), ErrNotMinter)
	require.NoError(tok.Mint(minter, alice, big.NewInt(100)))
	require.Equal("100", tok.TotalSupply().String())

	require.True(tok.Transfer(alice, bob, big.NewInt(30)))
	require.False(tok.Transfer(alice, bob, big.NewInt(71)))
	require.False(tok.Transfer(alice, common.Address{}, big.NewInt(1)))
	require.Equal("70", tok.BalanceOf(alice).String())
	require.Equal("30", tok.BalanceOf(bob).String())

	require.False(tok.TransferFrom(bob, alice, bob, big.NewInt(1)))
	require.True(tok.Approve(alice, bob, big.NewInt(50)))
	require.False(tok.TransferFrom(bob, alice, bob, big.NewInt(51)))
	require.True(tok.TransferFrom(bob, alice, bob, big.NewInt(20)))
	require.Equal("30", tok.Allowance(alice, bob).String())
	require.Equal("50", tok.BalanceOf(alice).String())
	require.Equal("50", tok.BalanceOf(bob).String())
	require.Equal("100", tok.TotalSupply().String())

	// mint, transfer, approve, transferFrom
	logs := db.Logs()
	require.Len(logs, 4)
	require.Equal(parsedABI.Events["Transfer"].ID, logs[0].Topics[0])
	require.Equal(common.Hash{}, logs[0].Topics[1])
	require.Equal(parsedABI.Events["Approval"].ID, logs[2].Topics[0])
}

func TestRegistry(t *testing.T) {
	db := newState(t)
	tok, err := Deploy(db, tokenAddr, "Test Token", "TEST", 18, minter)
	require.NoError(t, err)
	require.NoError(t, tok.Mint(minter, alice, big.NewInt(5)))

	got := NewRegistry(db).Token(tokenAddr)
	require.Equal(t, "5", got.BalanceOf(alice).String())
}

func TestShortString(t *testing.T) {
	for _, s := range []string{"", "T", "TEST", "exactly thirty-one bytes long!!"} {
		require.Equal(t, s, readShortString(shortString(s)))
	}
}
