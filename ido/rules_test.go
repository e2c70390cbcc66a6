package ido

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
)

// TestDefaultRules verifies the production rule set.
func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	if rules.Name != "default" {
		t.Errorf("Name = %q, want %q", rules.Name, "default")
	}
	if rules.DayLength != 86400 {
		t.Errorf("DayLength = %d, want %d", rules.DayLength, 86400)
	}
	if rules.Deploy.MinDurationDays != 1 {
		t.Errorf("MinDurationDays = %d, want 1", rules.Deploy.MinDurationDays)
	}
	if rules.Deploy.MaxRewardRatePermil != 1000 {
		t.Errorf("MaxRewardRatePermil = %d, want 1000", rules.Deploy.MaxRewardRatePermil)
	}
	if rules.Reward.Ranks != 5 || rules.Reward.RankSharePercent != 20 {
		t.Errorf("Reward = %+v, want 5 ranks at 20%%", rules.Reward)
	}
	if err := rules.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

// TestDevRules verifies the accelerated rules only change the day length.
func TestDevRules(t *testing.T) {
	dev, def := DevRules(), DefaultRules()

	if dev.Name != "dev" {
		t.Errorf("Name = %q, want %q", dev.Name, "dev")
	}
	if dev.DayLength != 60 {
		t.Errorf("DayLength = %d, want 60", dev.DayLength)
	}
	dev.Name, dev.DayLength = def.Name, def.DayLength
	if dev.String() != def.String() {
		t.Errorf("dev rules differ beyond the day length:\n%s\n%s", dev, def)
	}
}

func TestRulesByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "default", false},
		{"default", "default", false},
		{"dev", "dev", false},
		{"main", "", true},
	}
	for _, tt := range tests {
		rules, err := RulesByName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("RulesByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if rules.Name != tt.want {
			t.Errorf("RulesByName(%q).Name = %q, want %q", tt.name, rules.Name, tt.want)
		}
	}
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Rules)
	}{
		{"zero day", func(r *Rules) { r.DayLength = 0 }},
		{"zero duration", func(r *Rules) { r.Deploy.MinDurationDays = 0 }},
		{"rate above base", func(r *Rules) { r.Deploy.MaxRewardRatePermil = PermilBase + 1 }},
		{"no ranks", func(r *Rules) { r.Reward.Ranks = 0 }},
		{"shares above total", func(r *Rules) { r.Reward.RankSharePercent = 26 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.modify(&rules)
			if err := rules.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}

func TestPriceUnit(t *testing.T) {
	want := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if got := DefaultRules().PriceUnit(); got.Cmp(want) != 0 {
		t.Errorf("PriceUnit() = %s, want %s", got, want)
	}
}

// TestRulesString verifies the debug representation is valid JSON.
func TestRulesString(t *testing.T) {
	var decoded Rules
	if err := json.Unmarshal([]byte(DevRules().String()), &decoded); err != nil {
		t.Fatalf("String() is not JSON: %v", err)
	}
	if decoded.DayLength != 60 || decoded.Gas != DefaultGasRules() {
		t.Errorf("decoded = %+v", decoded)
	}
}

func newStateDB(t *testing.T) *state.StateDB {
	t.Helper()
	statedb, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	if err != nil {
		t.Fatal(err)
	}
	return statedb
}

func TestKey(t *testing.T) {
	a := Key("balance", U64(1), common.Address{1}.Bytes())
	b := Key("balance", U64(1), common.Address{2}.Bytes())
	c := Key("claimed", U64(1), common.Address{1}.Bytes())
	if a == b || a == c {
		t.Error("distinct fields or parts share a slot")
	}
	if a != Key("balance", U64(1), common.Address{1}.Bytes()) {
		t.Error("Key is not deterministic")
	}
	if len(U64(7)) != 8 || U64(7)[7] != 7 {
		t.Errorf("U64(7) = %x", U64(7))
	}
}

func TestStorage(t *testing.T) {
	statedb := newStateDB(t)
	addr := common.HexToAddress("0x01")
	InstallNative(statedb, addr)
	if !IsContract(statedb, addr) {
		t.Fatal("native contract has no code")
	}
	if IsContract(statedb, common.HexToAddress("0x02")) {
		t.Fatal("plain account reported as contract")
	}

	st := NewStorage(statedb, addr)
	st.SetBig(Key("big"), big.NewInt(42))
	st.SetUint64(Key("u64"), 7)
	st.SetAddress(Key("addr"), common.HexToAddress("0xabc"))
	st.SetBool(Key("flag"), true)

	if got := st.Big(Key("big")); got.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("Big = %s, want 42", got)
	}
	if got := st.Uint64(Key("u64")); got != 7 {
		t.Errorf("Uint64 = %d, want 7", got)
	}
	if got := st.AddressAt(Key("addr")); got != common.HexToAddress("0xabc") {
		t.Errorf("AddressAt = %s", got.Hex())
	}
	if !st.Bool(Key("flag")) || st.Bool(Key("missing")) {
		t.Error("Bool mismatch")
	}
	st.SetBool(Key("flag"), false)
	if st.Bool(Key("flag")) {
		t.Error("flag not cleared")
	}
}

func TestTransfer(t *testing.T) {
	statedb := newStateDB(t)
	from, to := common.HexToAddress("0x0a"), common.HexToAddress("0x0b")
	statedb.SetBalance(from, big.NewInt(10))

	if CanTransfer(statedb, from, big.NewInt(11)) {
		t.Error("CanTransfer allowed more than the balance")
	}
	if !CanTransfer(statedb, from, big.NewInt(10)) {
		t.Fatal("CanTransfer refused the whole balance")
	}
	Transfer(statedb, from, to, big.NewInt(4))
	if statedb.GetBalance(from).Int64() != 6 || statedb.GetBalance(to).Int64() != 4 {
		t.Errorf("balances = %s, %s; want 6, 4", statedb.GetBalance(from), statedb.GetBalance(to))
	}
}
