package chain_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad wei literal " + s)
	}
	return n
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{"nil", nil, "0.0"},
		{"zero", big.NewInt(0), "0.0"},
		{"one wei", big.NewInt(1), "0.000000000000000001"},
		{"one gwei", big.NewInt(1_000_000_000), "0.000000001"},
		{"tenth", wei("100000000000000000"), "0.1"},
		{"one", wei("1000000000000000000"), "1.0"},
		{"one and a half", wei("1500000000000000000"), "1.5"},
		{"large", wei("123456789000000000000000"), "123456.789"},
		{"negative", wei("-250000000000000000"), "-0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chain.FormatEther(tt.wei))
		})
	}
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.1", "100000000000000000"},
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{".5", "500000000000000000"},
		{"0", "0"},
		{" 2.0 ", "2000000000000000000"},
		{"0.000000000000000001", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := chain.ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEtherErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1.2.3", "1e18", "0.0000000000000000001", "1."} {
		t.Run(in, func(t *testing.T) {
			_, err := chain.ParseEther(in)
			assert.Error(t, err)
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0.1", "1.0", "42.000001", "0.000000000000000001"} {
		w, err := chain.ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, chain.FormatEther(w))
	}
}

func TestChainIDHex(t *testing.T) {
	assert.Equal(t, "0xaa36a7", chain.ChainIDHex(11155111))
	assert.Equal(t, "0x1", chain.ChainIDHex(1))

	id, err := chain.ParseChainIDHex("0xaa36a7")
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), id)

	id, err = chain.ParseChainIDHex("0X7A69")
	require.NoError(t, err)
	assert.Equal(t, int64(31337), id)

	_, err = chain.ParseChainIDHex("11155111")
	assert.Error(t, err)
	_, err = chain.ParseChainIDHex("0xzz")
	assert.Error(t, err)
}
