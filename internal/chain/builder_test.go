package chain

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chainalytics/internal/errors"
	"chainalytics/internal/models"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func contract(symbol string, strike float64, daysOut int, typ models.OptionType, iv float64, oi int64) models.OptionContract {
	return models.OptionContract{
		Symbol:       symbol,
		Strike:       strike,
		Expiry:       testNow.AddDate(0, 0, daysOut),
		Type:         typ,
		LastPrice:    3.0,
		Bid:          2.9,
		Ask:          3.1,
		OpenInterest: oi,
		IV:           iv,
	}
}

func newTestBuilder() *Builder {
	return NewBuilder(0.05, 0.20, zerolog.Nop())
}

func TestBuildIndexesAndSorts(t *testing.T) {
	contracts := []models.OptionContract{
		contract("XYZ", 110, 30, models.Call, 0.25, 100),
		contract("XYZ", 90, 30, models.Put, 0.28, 200),
		contract("XYZ", 100, 30, models.Call, 0.22, 300),
		contract("XYZ", 100, 60, models.Put, 0.24, 150),
		contract("XYZ", 100, 30, models.Put, 0.26, 250),
	}

	oc, err := newTestBuilder().Build("XYZ", 100, contracts, testNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	wantStrikes := []float64{90, 100, 110}
	if len(oc.Strikes) != len(wantStrikes) {
		t.Fatalf("strikes = %v, want %v", oc.Strikes, wantStrikes)
	}
	for i, k := range wantStrikes {
		if oc.Strikes[i] != k {
			t.Errorf("strikes[%d] = %v, want %v", i, oc.Strikes[i], k)
		}
	}

	if len(oc.Expiries) != 2 || !oc.Expiries[0].Before(oc.Expiries[1]) {
		t.Errorf("expiries = %v, want 2 ascending", oc.Expiries)
	}

	if _, ok := oc.Call(100, testNow.AddDate(0, 0, 30)); !ok {
		t.Error("call 100 missing from chain")
	}
	if _, ok := oc.Put(100, testNow.AddDate(0, 0, 30)); !ok {
		t.Error("put 100 missing from chain")
	}
}

func TestBuildBackfillsGreeks(t *testing.T) {
	oc, err := newTestBuilder().Build("XYZ", 100, []models.OptionContract{
		contract("XYZ", 105, 30, models.Call, 0.25, 500),
		contract("XYZ", 95, 30, models.Put, 0.28, 800),
	}, testNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	call, _ := oc.Call(105, testNow.AddDate(0, 0, 30))
	if !call.HasGreeks() {
		t.Fatal("call greeks not back-filled")
	}
	if call.Greeks.Delta <= 0 || call.Greeks.Delta >= 1 {
		t.Errorf("call delta = %v, want in (0,1)", call.Greeks.Delta)
	}

	put, _ := oc.Put(95, testNow.AddDate(0, 0, 30))
	if put.Greeks.Delta >= 0 || put.Greeks.Delta <= -1 {
		t.Errorf("put delta = %v, want in (-1,0)", put.Greeks.Delta)
	}
}

func TestBuildUsesDefaultIVWhenMissing(t *testing.T) {
	c := contract("XYZ", 100, 30, models.Call, 0, 100) // feed supplied no IV
	oc, err := newTestBuilder().Build("XYZ", 100, []models.OptionContract{c}, testNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, _ := oc.Call(100, testNow.AddDate(0, 0, 30))
	if !got.HasGreeks() {
		t.Error("greeks not computed with default IV")
	}
}

func TestBuildRejectsInvalidSpot(t *testing.T) {
	_, err := newTestBuilder().Build("XYZ", 0, []models.OptionContract{
		contract("XYZ", 100, 30, models.Call, 0.2, 10),
	}, testNow)
	if !errors.Is(err, errors.ErrInvalidSpot) {
		t.Errorf("err = %v, want ErrInvalidSpot", err)
	}
}

func TestBuildRejectsSymbolMismatch(t *testing.T) {
	_, err := newTestBuilder().Build("XYZ", 100, []models.OptionContract{
		contract("ABC", 100, 30, models.Call, 0.2, 10),
	}, testNow)
	if !errors.Is(err, errors.ErrSymbolMismatch) {
		t.Errorf("err = %v, want ErrSymbolMismatch", err)
	}
}

func TestBuildDropsExpiredContractsSilently(t *testing.T) {
	oc, err := newTestBuilder().Build("XYZ", 100, []models.OptionContract{
		contract("XYZ", 100, 30, models.Call, 0.2, 10),
		contract("XYZ", 95, -5, models.Put, 0.2, 10), // already expired
	}, testNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(oc.Puts) != 0 {
		t.Error("expired put should have been dropped")
	}
	if len(oc.Strikes) != 1 || oc.Strikes[0] != 100 {
		t.Errorf("strikes = %v, want [100]", oc.Strikes)
	}
}

func TestBuildFailsOnEmptyChain(t *testing.T) {
	_, err := newTestBuilder().Build("XYZ", 100, nil, testNow)
	if !errors.Is(err, errors.ErrEmptyChain) {
		t.Errorf("err = %v, want ErrEmptyChain", err)
	}
}

func TestFilterExpiry(t *testing.T) {
	near := testNow.AddDate(0, 0, 30)
	far := testNow.AddDate(0, 0, 60)
	oc, err := newTestBuilder().Build("XYZ", 100, []models.OptionContract{
		contract("XYZ", 100, 30, models.Call, 0.2, 10),
		contract("XYZ", 110, 60, models.Call, 0.2, 10),
	}, testNow)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	filtered, err := FilterExpiry(oc, near)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(filtered.Expiries) != 1 || len(filtered.Strikes) != 1 || filtered.Strikes[0] != 100 {
		t.Errorf("filtered = strikes %v expiries %v, want one of each", filtered.Strikes, filtered.Expiries)
	}

	if _, err := FilterExpiry(filtered, far); !errors.Is(err, errors.ErrInvalidExpiry) {
		t.Errorf("err = %v, want ErrInvalidExpiry", err)
	}
}
