package pricing

import (
	"testing"

	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCustomerPrice(t *testing.T) {
	tests := []struct {
		name      string
		estimated string
		profit    string
		quantity  int
		want      string
	}{
		{"markup and quantity", "1000", "10", 2, "2200"},
		{"no markup", "500", "0", 3, "1500"},
		{"zero quantity counts as one", "1000", "10", 0, "1100"},
		{"negative markup ignored", "800", "-5", 1, "800"},
		{"fractional markup rounded to cents", "1000.50", "12.5", 1, "1125.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CustomerPrice(d(tt.estimated), d(tt.profit), tt.quantity)
			assert.True(t, d(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestClampProfit(t *testing.T) {
	limit := decimal.NewFromInt(DefaultProfitCap)

	assert.True(t, d("15").Equal(ClampProfit(d("40"), limit)))
	assert.True(t, d("12").Equal(ClampProfit(d("12"), limit)))
	assert.True(t, decimal.Zero.Equal(ClampProfit(d("-3"), limit)))
}

func TestDeriveStatus(t *testing.T) {
	balance, status := DeriveStatus(d("2200"), d("500"))
	assert.True(t, d("1700").Equal(balance))
	assert.Equal(t, enum.PaymentStatusPartiallyPaid, status)

	balance, status = DeriveStatus(d("2200"), d("2200"))
	assert.True(t, balance.IsZero())
	assert.Equal(t, enum.PaymentStatusFullyPaid, status)

	_, status = DeriveStatus(d("2200"), d("2500"))
	assert.Equal(t, enum.PaymentStatusFullyPaid, status)

	_, status = DeriveStatus(d("2200"), decimal.Zero)
	assert.Equal(t, enum.PaymentStatusNotPaid, status)
}

func TestDeriveStatus_Idempotent(t *testing.T) {
	b1, s1 := DeriveStatus(d("1500"), d("200"))
	b2, s2 := DeriveStatus(d("1500"), d("200"))
	assert.True(t, b1.Equal(b2))
	assert.Equal(t, s1, s2)
}

func TestRemainingPayments(t *testing.T) {
	assert.Equal(t, 2, RemainingPayments(3, 1))
	assert.Equal(t, 0, RemainingPayments(3, 3))
	assert.Equal(t, 0, RemainingPayments(3, 5))
}

func TestReconcileStatus(t *testing.T) {
	price := d("1000")

	t.Run("ledger min balance settles", func(t *testing.T) {
		got := ReconcileStatus(Snapshot{
			Price:            price,
			TotalPaid:        d("400"),
			LedgerMinBalance: decimal.NewNullDecimal(decimal.Zero),
		})
		assert.Equal(t, enum.PaymentStatusFullyPaid, got)
	})

	t.Run("ledger total covers price", func(t *testing.T) {
		got := ReconcileStatus(Snapshot{Price: price, TotalPaid: d("600"), LedgerTotal: d("1000")})
		assert.Equal(t, enum.PaymentStatusFullyPaid, got)
	})

	t.Run("simple total covers price", func(t *testing.T) {
		got := ReconcileStatus(Snapshot{Price: price, TotalPaid: d("600"), SimpleTotal: d("1200")})
		assert.Equal(t, enum.PaymentStatusFullyPaid, got)
	})

	t.Run("partial", func(t *testing.T) {
		got := ReconcileStatus(Snapshot{
			Price:            price,
			TotalPaid:        d("300"),
			SimpleTotal:      d("300"),
			LedgerTotal:      d("300"),
			LedgerMinBalance: decimal.NewNullDecimal(d("700")),
		})
		assert.Equal(t, enum.PaymentStatusPartiallyPaid, got)
	})

	t.Run("nothing paid", func(t *testing.T) {
		assert.Equal(t, enum.PaymentStatusNotPaid, ReconcileStatus(Snapshot{Price: price}))
	})
}
