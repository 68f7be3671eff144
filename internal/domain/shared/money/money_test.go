package money

import (
	"errors"
	"testing"
)

func TestNewValidatesCurrency(t *testing.T) {
	if _, err := New(100, "usd"); err != nil {
		t.Fatalf("lowercase code should be accepted: %v", err)
	}
	m, _ := New(100, "usd")
	if m.Currency != "USD" {
		t.Errorf("currency = %q, want USD", m.Currency)
	}
	if _, err := New(100, "US"); !errors.Is(err, ErrInvalidCurrency) {
		t.Errorf("err = %v, want ErrInvalidCurrency", err)
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	usd := Must(100, "USD")
	eur := Must(100, "EUR")
	if _, err := usd.Add(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("err = %v, want ErrCurrencyMismatch", err)
	}
	sum, err := usd.Add(Must(250, "USD"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Amount != 350 {
		t.Errorf("sum = %d, want 350", sum.Amount)
	}
}

func TestPercentOfRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		percent float64
		want    int64
	}{
		{"exact", 10000, 10, 1000},
		{"ten percent of 1250", 1250, 10, 125},
		{"125.5 rounds to 126", 2510, 5, 126},
		{"124.5 rounds to 124", 2490, 5, 124},
		{"0.5 rounds to 0", 10, 5, 0},
		{"1.5 rounds to 2", 30, 5, 2},
		{"zero percent", 9999, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Must(tc.amount, "USD").PercentOf(tc.percent)
			if got.Amount != tc.want {
				t.Errorf("PercentOf(%v) of %d = %d, want %d", tc.percent, tc.amount, got.Amount, tc.want)
			}
			if got.Currency != "USD" {
				t.Errorf("currency lost: %q", got.Currency)
			}
		})
	}
}

func TestSubAndNeg(t *testing.T) {
	a := Must(500, "USD")
	b := Must(125, "USD")
	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.Amount != 375 {
		t.Errorf("diff = %d, want 375", diff.Amount)
	}
	if n := b.Neg(); n.Amount != -125 || !n.IsNegative() {
		t.Errorf("Neg = %+v", n)
	}
}
