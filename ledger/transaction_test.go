package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Construction(t *testing.T) {
	t.Run("deposit", func(t *testing.T) {
		before := time.Now().UTC()

		tx, err := NewDeposit(dec("12.34"))

		require.NoError(t, err)
		assert.Equal(t, KindDeposit, tx.Kind())
		assert.True(t, dec("12.34").Equal(tx.Amount()))
		assert.False(t, tx.Date().Before(before))
		assert.Empty(t, tx.ApprovalCode())
		assert.Empty(t, tx.AccountNumber())
		assert.False(t, tx.Posted())
		_, hasBill := tx.PhoneBill()
		_, hasCheck := tx.Check()
		assert.False(t, hasBill)
		assert.False(t, hasCheck)
	})

	amountTests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", dec("-1")},
		{"three decimals", dec("1.001")},
	}
	for _, tt := range amountTests {
		t.Run("withdrawal with "+tt.name+" amount", func(t *testing.T) {
			tx, err := NewWithdrawal(tt.amount)

			assert.Nil(t, tx)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "amount", verr.Field)
			assert.Equal(t, 0, verr.Position)
		})
	}

	t.Run("phone bill payment validates its parameters in order", func(t *testing.T) {
		tests := []struct {
			name     string
			company  PhoneCompany
			phone    string
			amount   decimal.Decimal
			field    string
			position int
		}{
			{"unknown company", PhoneCompany("COMPANY_Z"), "5551234567", dec("1"), "phoneCompany", 0},
			{"short phone", CompanyA, "555123", dec("1"), "phoneNumber", 1},
			{"phone with letters", CompanyA, "555123456x", dec("1"), "phoneNumber", 1},
			{"zero amount", CompanyC, "5551234567", decimal.Zero, "amount", 2},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPhoneBillPayment(tt.company, tt.phone, tt.amount)

				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.field, verr.Field)
				assert.Equal(t, tt.position, verr.Position)
			})
		}
	})

	t.Run("check payment draws its number at construction", func(t *testing.T) {
		numbers := NewCheckNumbers()

		first, err := NewCheckPayment(numbers, " Bob ", dec("5"))
		require.NoError(t, err)
		second, err := NewCheckPayment(numbers, "Bob", dec("5"))
		require.NoError(t, err)

		c1, ok := first.Check()
		require.True(t, ok)
		c2, _ := second.Check()
		assert.Equal(t, "Bob", c1.Payee)
		day := first.Date().Format("2006-0102")
		assert.Equal(t, "CHK-"+day+"-0001", c1.Number)
		assert.Equal(t, "CHK-"+second.Date().Format("2006-0102")+"-0002", c2.Number)
	})

	t.Run("check payment rejects a blank payee", func(t *testing.T) {
		_, err := NewCheckPayment(nil, "   ", dec("5"))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "payee", verr.Field)
		assert.Equal(t, 0, verr.Position)
	})
}

func TestTransaction_Apply(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Transaction, error)
		balance string
		want    string
		wantErr error
	}{
		{"deposit on zero", func() (*Transaction, error) { return NewDeposit(dec("10")) }, "0", "10", nil},
		{"withdrawal within balance", func() (*Transaction, error) { return NewWithdrawal(dec("10")) }, "15", "5", nil},
		{"withdrawal of exact balance", func() (*Transaction, error) { return NewWithdrawal(dec("15")) }, "15", "0", nil},
		{"withdrawal over balance", func() (*Transaction, error) { return NewWithdrawal(dec("15.01")) }, "15", "15", ErrInsufficientFunds},
		{"phone bill over balance", func() (*Transaction, error) {
			return NewPhoneBillPayment(CompanyB, "5551234567", dec("2"))
		}, "1", "1", ErrInsufficientFunds},
		{"check within balance", func() (*Transaction, error) {
			return NewCheckPayment(NewCheckNumbers(), "Bob", dec("0.50"))
		}, "1", "0.50", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := tt.build()
			require.NoError(t, err)

			got, err := tx.apply(dec(tt.balance))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestTransaction_AssignApprovalCode(t *testing.T) {
	tx, err := NewDeposit(dec("1"))
	require.NoError(t, err)

	assert.ErrorIs(t, tx.assignApprovalCode(""), ErrValidation)
	require.NoError(t, tx.assignApprovalCode("abc"))
	assert.ErrorIs(t, tx.assignApprovalCode("def"), ErrAlreadyPosted)
	assert.Equal(t, "abc", tx.ApprovalCode())
}

func TestKind(t *testing.T) {
	t.Run("operation labels", func(t *testing.T) {
		assert.Equal(t, "Credit", KindDeposit.Operation())
		assert.Equal(t, "Debit", KindWithdrawal.Operation())
		assert.Equal(t, "PhoneBillPayment", KindPhoneBillPayment.Operation())
		assert.Equal(t, "CheckPayment", KindCheckPayment.Operation())
	})

	t.Run("only deposits credit", func(t *testing.T) {
		assert.False(t, KindDeposit.Debiting())
		assert.True(t, KindWithdrawal.Debiting())
		assert.True(t, KindPhoneBillPayment.Debiting())
		assert.True(t, KindCheckPayment.Debiting())
	})

	t.Run("parse", func(t *testing.T) {
		k, err := ParseKind(" phone_bill_payment ")
		require.NoError(t, err)
		assert.Equal(t, KindPhoneBillPayment, k)

		_, err = ParseKind("TRANSFER")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "transactionType", verr.Field)
	})

	t.Run("phone companies", func(t *testing.T) {
		c, err := ParsePhoneCompany("company_b")
		require.NoError(t, err)
		assert.Equal(t, CompanyB, c)
		assert.Equal(t, "Company B", c.DisplayName())

		_, err = ParsePhoneCompany("COMPANY_D")
		assert.ErrorIs(t, err, ErrValidation)
	})
}
