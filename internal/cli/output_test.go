package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{19900, "EUR", "199.00 EUR"},
		{5, "USD", "0.05 USD"},
		{-1250, "EUR", "-12.50 EUR"},
		{0, "EUR", "0.00 EUR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(tt.cents, tt.currency))
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Trading...", truncate("Trading Academy", 10))
	assert.Equal(t, "Tr", truncate("Trading", 2))
}

func TestWriteOutput(t *testing.T) {
	data := map[string]interface{}{"status": "paid", "amountCents": 19900}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "yaml", data))
	assert.Contains(t, buf.String(), "status: paid")
	assert.Contains(t, buf.String(), "amountCents: 19900")

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "json", data))
	assert.Contains(t, buf.String(), `"status": "paid"`)
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("ID", "STATUS")
	tbl.writer = &buf
	tbl.AddRow("1", formatStatus("pending"))
	tbl.Render()

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "--")
	assert.Contains(t, out, "[*] pending")
}

func TestRootCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"auth", "login"},
		{"config", "set"},
		{"orders", "confirm"},
		{"trials", "extend"},
		{"subscriptions", "pause"},
		{"newsletter", "send"},
		{"analytics", "stats"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[1], cmd.Name())
	}
}
