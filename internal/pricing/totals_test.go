package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderTotal(t *testing.T) {
	got := OrderTotal(money("13.00"), money("2.50"), money("3.00"))
	if !got.Equal(money("12.50")) {
		t.Errorf("order total = %s, want 12.50", got)
	}
}

func TestOrderTotal_NoTaxTerm(t *testing.T) {
	// subtotal + fee − discount and nothing else.
	got := OrderTotal(money("10.00"), decimal.Zero, decimal.Zero)
	if !got.Equal(money("10.00")) {
		t.Errorf("order total = %s, want 10.00", got)
	}
}

func TestOrderTotal_ClampedAtZero(t *testing.T) {
	got := OrderTotal(money("5.00"), decimal.Zero, money("8.00"))
	if !got.IsZero() {
		t.Errorf("order total = %s, want 0", got)
	}
}

func TestLineTotal(t *testing.T) {
	got := LineTotal(money("9.00"), money("4.00"), 2)
	if !got.Equal(money("26.00")) {
		t.Errorf("line total = %s, want 26.00", got)
	}
	if got := LineTotal(money("9.00"), money("4.00"), 0); !got.IsZero() {
		t.Errorf("line total for qty 0 = %s, want 0", got)
	}
}

func TestAddonItemTotal(t *testing.T) {
	addons := []SelectedAddon{
		{TotalPrice: money("2.00")},
		{TotalPrice: money("2.75")},
	}
	if got := AddonItemTotal(addons); !got.Equal(money("4.75")) {
		t.Errorf("addon item total = %s, want 4.75", got)
	}
	if got := AddonItemTotal(nil); !got.IsZero() {
		t.Errorf("addon item total for nil = %s, want 0", got)
	}
}

func TestParseMoney_FailSoft(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.50", "12.50"},
		{" 7.1 ", "7.10"},
		{"", "0.00"},
		{"not-a-number", "0.00"},
		{"12,50", "0.00"},
	}
	for _, c := range cases {
		if got := FormatMoney(ParseMoney(c.in)); got != c.want {
			t.Errorf("ParseMoney(%q) formatted = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestFormatMoney_RoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"2.674999", "2.67"},
		{"3", "3.00"},
	}
	for _, c := range cases {
		if got := FormatMoney(money(c.in)); got != c.want {
			t.Errorf("FormatMoney(%s) = %s, want %s", c.in, got, c.want)
		}
	}
}
