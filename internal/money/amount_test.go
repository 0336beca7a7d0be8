package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	a, err := Parse("1234.5")
	require.NoError(t, err)
	require.Equal(t, "1234.50", a.String())

	_, err = Parse("not-a-number")
	require.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	a := MustParse("100.10")
	b := MustParse("0.20")

	require.Equal(t, "100.30", a.Add(b).String())
	require.Equal(t, "99.90", a.Sub(b).String())
	require.True(t, a.GreaterThan(b))
	require.True(t, b.LessThan(a))
	require.Equal(t, 0, a.Cmp(MustParse("100.1")))
}

func TestNoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3.
	sum := MustParse("0.1").Add(MustParse("0.2"))
	require.True(t, sum.Equal(MustParse("0.3")))

	// Summing 0.01 a hundred times must be exactly 1.
	total := Zero
	cent := FromCents(1)
	for i := 0; i < 100; i++ {
		total = total.Add(cent)
	}
	require.True(t, total.Equal(FromCents(100)))
}

func TestMinMax(t *testing.T) {
	a := MustParse("5")
	b := MustParse("7")
	require.True(t, Min(a, b).Equal(a))
	require.True(t, Max(a, b).Equal(b))
}

func TestRound2Bankers(t *testing.T) {
	require.Equal(t, "2.42", MustParse("2.425").Round2().String())
	require.Equal(t, "2.44", MustParse("2.435").Round2().String())
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(MustParse("42.5"))
	require.NoError(t, err)
	require.Equal(t, `"42.50"`, string(data))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"13.37"`), &a))
	require.Equal(t, "13.37", a.String())

	// Bare numbers from older clients still decode.
	require.NoError(t, json.Unmarshal([]byte(`19.99`), &a))
	require.Equal(t, "19.99", a.String())
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en", "USD")
	require.Equal(t, "USD 1,234.50", f.Format(MustParse("1234.50")))
}
