package launcher

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-idopool/evmcore"
	"github.com/rony4d/go-idopool/integration"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// writeSteps prints one line per scenario step.
func writeSteps(w io.Writer, results []*StepResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "STEP\tBLOCK\tTIME\tACTION\tFROM\tPOOL\tGAS\tRESULT\tEVENTS")
	for _, r := range results {
		outcome := "ok"
		if r.Output != "" {
			outcome = "ok (" + r.Output + ")"
		}
		if !r.OK() {
			outcome = "revert: " + r.Reason
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Index, r.Block, r.Time, r.Action, shortAddr(r.From), r.Pool, r.Gas, outcome, strings.Join(r.Events, ","))
	}
	return tw.Flush()
}

// writePools prints the configuration and accounting of every pool.
func writePools(w io.Writer, chain *evmcore.Chain) error {
	p := chain.Pool()
	decimals := int32(chain.Rules().PriceDecimals)

	fmt.Fprintf(w, "owner %s, stopped %v, pools %d, head %d at %d\n",
		p.Owner().Hex(), p.Stopped(), p.PoolCount(), chain.Head().Number, chain.Head().Time)

	tw := newTable(w)
	fmt.Fprintln(tw, "POOL\tSTART\tDAYS\tFUNDED\tDAILY\tRATE\tDEPOSITED\tRESERVE\tORACLE")
	for id := uint64(1); id <= p.PoolCount(); id++ {
		info, err := p.PoolInfo(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%d‰\t%s\t%s\t%s\n",
			id, info.StartTime, info.Duration/chain.Rules().DayLength,
			integration.FormatUnits(info.TotalFunded, decimals),
			integration.FormatUnits(info.DailyRelease, decimals),
			info.RewardRatePermil,
			integration.FormatUnits(info.TotalDeposit, decimals),
			integration.FormatUnits(info.Reserve, decimals),
			shortAddr(info.Oracle))
	}
	return tw.Flush()
}

// writeBalances prints the native and token balances of accounts and their
// position in every pool at now.
func writeBalances(w io.Writer, chain *evmcore.Chain, accounts []common.Address, now uint64) error {
	p := chain.Pool()
	statedb := chain.State()
	decimals := int32(chain.Rules().PriceDecimals)
	token, err := chain.Token(evmcore.TokenAddress)
	if err != nil {
		return err
	}
	tokenDecimals := int32(token.Decimals())

	tw := newTable(w)
	fmt.Fprintf(tw, "ACCOUNT\tNATIVE\t%s\tREFERRER\n", token.Symbol())
	for _, acc := range accounts {
		ref := p.ReferrerOf(acc)
		refText := "-"
		if ref != (common.Address{}) {
			refText = shortAddr(ref)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortAddr(acc),
			integration.FormatUnits(statedb.GetBalance(acc), decimals),
			integration.FormatUnits(token.BalanceOf(acc), tokenDecimals),
			refText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.PoolCount() == 0 {
		return nil
	}

	tw = newTable(w)
	fmt.Fprintln(tw, "POOL\tACCOUNT\tDEPOSIT\tUNLOCKED\tCLAIMED\tAVAILABLE")
	for id := uint64(1); id <= p.PoolCount(); id++ {
		for _, acc := range accounts {
			row, err := position(chain, id, acc, now)
			if err != nil {
				return err
			}
			if row == nil {
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", id, shortAddr(acc),
				integration.FormatUnits(row[0], decimals),
				integration.FormatUnits(row[1], decimals),
				integration.FormatUnits(row[2], decimals),
				integration.FormatUnits(row[3], decimals))
		}
	}
	return tw.Flush()
}

// position returns deposit, unlocked, claimed and available amounts of acc in
// pool id, or nil when the account never took part.
func position(chain *evmcore.Chain, id uint64, acc common.Address, now uint64) ([]*big.Int, error) {
	p := chain.Pool()
	balance, err := p.BalanceOf(id, acc)
	if err != nil {
		return nil, err
	}
	unlocked, err := p.Unlocked(id, acc, now)
	if err != nil {
		return nil, err
	}
	claimed, err := p.Claimed(id, acc)
	if err != nil {
		return nil, err
	}
	available, err := p.AvailableToExchange(id, acc, now)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 && unlocked.Sign() == 0 && claimed.Sign() == 0 {
		return nil, nil
	}
	return []*big.Int{balance, unlocked, claimed, available}, nil
}

func shortAddr(a common.Address) string {
	hex := a.Hex()
	return hex[:6] + ".." + hex[len(hex)-4:]
}
