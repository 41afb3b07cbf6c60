package moneypkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "Integer", input: "200", want: 20000},
		{name: "TwoDecimals", input: "200.50", want: 20050},
		{name: "OneDecimal", input: "0.5", want: 50},
		{name: "Spaces", input: " 12.34 ", want: 1234},
		{name: "Negative", input: "-10.01", want: -1001},
		{name: "TrailingZeros", input: "1.5000", want: 150},
		{name: "TooPrecise", input: "1.005", wantErr: ErrTooPrecise},
		{name: "Malformed", input: "!@#$", wantErr: ErrMalformed},
		{name: "Empty", input: "", wantErr: ErrMalformed},
		{name: "Infinity", input: "Inf", wantErr: ErrMalformed},
		{name: "OutOfRange", input: "100000000000000000000", wantErr: ErrOutOfRange},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParsePositive(t *testing.T) {
	t.Parallel()

	_, err := ParsePositive("0")
	require.ErrorIs(t, err, ErrNotPositive)

	_, err = ParsePositive("-1")
	require.ErrorIs(t, err, ErrNotPositive)

	got, err := ParsePositive("0.01")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0.00", Format(0))
	require.Equal(t, "200.50", Format(20050))
	require.Equal(t, "-3.07", Format(-307))
	require.Equal(t, "1000.00", Format(100000))
}

func TestWithinTolerance(t *testing.T) {
	t.Parallel()

	require.True(t, WithinTolerance(100000, 100000))
	require.True(t, WithinTolerance(100000, 99999))
	require.True(t, WithinTolerance(99999, 100000))
	require.False(t, WithinTolerance(100000, 80000))
}
