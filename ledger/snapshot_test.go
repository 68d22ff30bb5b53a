package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postedAccount(t *testing.T) *Account {
	t.Helper()
	acc := newTestAccount(t, "1003")
	_, err := acc.Credit(dec("100"))
	require.NoError(t, err)
	_, err = acc.PayPhoneBill(CompanyA, "5551234567", dec("96.50"))
	require.NoError(t, err)
	_, err = acc.PayCheck("Bob", dec("1.50"))
	require.NoError(t, err)
	return acc
}

func TestRestoreAccount(t *testing.T) {
	t.Run("restores through JSON", func(t *testing.T) {
		// Arrange
		acc := postedAccount(t)
		data, err := json.Marshal(acc.Snapshot())
		require.NoError(t, err)

		// Act
		var snapshot AccountSnapshot
		require.NoError(t, json.Unmarshal(data, &snapshot))
		restored, err := RestoreAccount(snapshot)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, acc.Number(), restored.Number())
		assert.Equal(t, acc.Owner(), restored.Owner())
		assert.True(t, dec("2").Equal(restored.Balance()))
		assert.Equal(t, acc.Version(), restored.Version())
		require.Len(t, restored.Transactions(), 3)
		for i, tx := range restored.Transactions() {
			orig := acc.Transactions()[i]
			assert.Equal(t, orig.Kind(), tx.Kind())
			assert.Equal(t, orig.ApprovalCode(), tx.ApprovalCode())
			assert.True(t, tx.Posted())
		}
		pb, ok := restored.Transactions()[1].PhoneBill()
		require.True(t, ok)
		assert.Equal(t, "5551234567", pb.Number)
		assertBalanced(t, restored)
	})

	t.Run("restored account keeps posting", func(t *testing.T) {
		restored, err := RestoreAccount(postedAccount(t).Snapshot())
		require.NoError(t, err)

		_, err = restored.Debit(dec("2"))

		require.NoError(t, err)
		assertBalanced(t, restored)
	})

	corrupt := []struct {
		name   string
		mutate func(*AccountSnapshot)
	}{
		{"balance does not match history", func(s *AccountSnapshot) { s.Balance = dec("5") }},
		{"version does not match history", func(s *AccountSnapshot) { s.Version = 7 }},
		{"transaction of another account", func(s *AccountSnapshot) { s.Transactions[0].AccountNumber = "9999" }},
		{"unposted transaction", func(s *AccountSnapshot) { s.Transactions[0].ApprovalCode = "" }},
		{"unknown kind", func(s *AccountSnapshot) { s.Transactions[0].Kind = "TRANSFER" }},
		{"history overdraws", func(s *AccountSnapshot) {
			s.Transactions[0], s.Transactions[1] = s.Transactions[1], s.Transactions[0]
		}},
	}
	for _, tt := range corrupt {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := postedAccount(t).Snapshot()
			tt.mutate(&snapshot)

			_, err := RestoreAccount(snapshot)

			assert.ErrorIs(t, err, ErrCorruptLedger)
			assert.NotContains(t, err.Error(), snapshot.AccountNumber, "errors end up in logs")
		})
	}
}
