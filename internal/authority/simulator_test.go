package authority

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

func fixedSimulator() *Simulator {
	now := func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return NewSimulatorWith(rand.New(rand.NewSource(42)), now)
}

func keyDocument() *models.FiscalDocument {
	return &models.FiscalDocument{
		Number:      "1001",
		Series:      "1",
		UF:          "35",
		IssuerTaxID: "11222333000181",
		IssuedAt:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckDigit(t *testing.T) {
	t.Run("Expect: deterministic digit for a fixed base", func(t *testing.T) {
		base := "3524111222333000181550010000010011" + "123456789"
		require.Len(t, base, 43)

		first, err := CheckDigit(base)
		require.NoError(t, err)
		second, err := CheckDigit(base)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.GreaterOrEqual(t, first, 0)
		assert.LessOrEqual(t, first, 9)
	})

	t.Run("Expect: remainder 0 or 1 yields digit 0", func(t *testing.T) {
		// All zeros sums to 0, remainder 0.
		base := ""
		for i := 0; i < 43; i++ {
			base += "0"
		}
		dv, err := CheckDigit(base)
		require.NoError(t, err)
		assert.Equal(t, 0, dv)
	})

	t.Run("Expect: wrong-length base is rejected", func(t *testing.T) {
		_, err := CheckDigit("123")
		assert.Error(t, err)
	})

	t.Run("Expect: non-digit base is rejected", func(t *testing.T) {
		base := ""
		for i := 0; i < 42; i++ {
			base += "1"
		}
		base += "X"
		_, err := CheckDigit(base)
		assert.Error(t, err)
	})
}

func TestSimulator_GenerateKey(t *testing.T) {
	t.Run("Expect: 44 digits with the documented layout", func(t *testing.T) {
		s := fixedSimulator()
		key := s.GenerateKey(keyDocument())

		require.Len(t, key, 44)
		assert.True(t, allDigits(key))
		assert.Equal(t, "35", key[0:2])              // UF
		assert.Equal(t, "2403", key[2:6])            // yyMM from issuance
		assert.Equal(t, "11222333000181", key[6:20]) // issuer tax id
		assert.Equal(t, "55", key[20:22])            // model
		assert.Equal(t, "001", key[22:25])           // series
		assert.Equal(t, "000001001", key[25:34])     // number
		assert.Equal(t, "1", key[34:35])             // emission type

		// The final digit must close the mod-11 equation.
		dv, err := CheckDigit(key[:43])
		require.NoError(t, err)
		assert.Equal(t, byte('0'+dv), key[43])
	})

	t.Run("Expect: default UF and current date when fields are absent", func(t *testing.T) {
		s := fixedSimulator()
		doc := keyDocument()
		doc.UF = ""
		doc.IssuedAt = time.Time{}

		key := s.GenerateKey(doc)
		require.Len(t, key, 44)
		assert.Equal(t, "35", key[0:2])
		assert.Equal(t, "2406", key[2:6]) // clock fallback
	})

	t.Run("Expect: malformed issuer tax id is replaced, key still structured", func(t *testing.T) {
		s := fixedSimulator()
		doc := keyDocument()
		doc.IssuerTaxID = "not-a-cnpj"

		key := s.GenerateKey(doc)
		require.Len(t, key, 44)
		assert.True(t, allDigits(key))
		assert.Equal(t, "000001001", key[25:34])
	})

	t.Run("Expect: structural failure degrades to a random 44-digit key", func(t *testing.T) {
		s := fixedSimulator()
		doc := keyDocument()
		doc.Number = "12B4"

		key := s.GenerateKey(doc)
		require.Len(t, key, 44)
		assert.True(t, allDigits(key))
	})

	t.Run("Expect: nil document degrades to a random key", func(t *testing.T) {
		s := fixedSimulator()
		key := s.GenerateKey(nil)
		require.Len(t, key, 44)
		assert.True(t, allDigits(key))
	})
}

func TestSimulator_Authorize(t *testing.T) {
	s := fixedSimulator()
	response := s.Authorize(keyDocument())

	assert.True(t, response.Authorized())
	assert.Equal(t, CodeAuthorized, response.StatusCode)
	assert.Len(t, response.AccessKey, 44)
	assert.Len(t, response.ProtocolNumber, 15)
	assert.True(t, allDigits(response.ProtocolNumber))
	assert.False(t, response.ReceivedAt.IsZero())
}

func TestSimulator_Reject(t *testing.T) {
	s := fixedSimulator()

	for i := 0; i < 20; i++ {
		response := s.Reject()
		assert.False(t, response.Authorized())
		reason, known := rejectionReasons[response.StatusCode]
		require.True(t, known, "unknown rejection code %s", response.StatusCode)
		assert.Equal(t, reason, response.Reason)
		assert.Empty(t, response.AccessKey)
	}
}
