package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashloan-executor/business/execution/domain"
	"github.com/fd1az/flashloan-executor/internal/asset"
)

// rpcServer answers eth_gasPrice with 30 gwei.
func rpcServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "eth_gasPrice":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x6fc23ac00"}`, req.ID)
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, rpcURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`app:
  log_level: error
database:
  driver: sqlite
  dsn: %q
networks:
  mainnet:
    rpc_url: %q
`, filepath.Join(dir, "executor.db"), rpcURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeOpportunity(t *testing.T, createdAt time.Time) string {
	t.Helper()
	opp := map[string]any{
		"id":                  "opp-cli-1",
		"tokenIn":             map[string]any{"symbol": "USDC", "address": "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", "decimals": 6},
		"tokenOut":            map[string]any{"symbol": "WPOL", "address": "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", "decimals": 18},
		"buyDex":              "quickswap",
		"sellDex":             "sushiswap",
		"flashLoanAmount":     "1000",
		"estimatedProfitUsd":  "25.5",
		"estimatedGasCostUsd": "0.4",
		"netProfitPercent":    "2.51",
		"createdAt":           createdAt.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(opp)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "opp.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExecute_PlainSimulationRecordsHistory(t *testing.T) {
	cfgPath := writeConfig(t, rpcServer(t).URL)
	oppPath := writeOpportunity(t, time.Now())

	_, err := runCmd(t, "--config", cfgPath, "configure", "-u", "user-1")
	require.NoError(t, err)

	out, err := runCmd(t, "--config", cfgPath, "execute", "--plain", "-u", "user-1", "-f", oppPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Simulated trade executed successfully")

	out, err = runCmd(t, "--config", cfgPath, "history", "-u", "user-1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "USDC/WPOL")
	assert.Contains(t, out, "success")

	out, err = runCmd(t, "--config", cfgPath, "history", "-u", "user-1", "--activity")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Validating opportunity opp-cli-1")
}

func TestExecute_RealTradingDisabledFails(t *testing.T) {
	cfgPath := writeConfig(t, rpcServer(t).URL)
	oppPath := writeOpportunity(t, time.Now())

	_, err := runCmd(t, "--config", cfgPath, "configure", "-u", "user-2", "--real-trading=false")
	require.NoError(t, err)

	out, err := runCmd(t, "--config", cfgPath, "execute", "--plain", "--real", "-u", "user-2", "-f", oppPath)
	require.ErrorIs(t, err, errExecutionFailed)
	assert.Contains(t, out, "Trade execution failed")
}

func TestValidate_StaleOpportunity(t *testing.T) {
	cfgPath := writeConfig(t, rpcServer(t).URL)

	out, err := runCmd(t, "--config", cfgPath, "validate", "-u", "user-1", "-f", writeOpportunity(t, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, out, "opp-cli-1: valid")

	out, err = runCmd(t, "--config", cfgPath, "validate", "-u", "user-1", "-f", writeOpportunity(t, time.Now().Add(-time.Hour)))
	require.ErrorIs(t, err, errInvalidOpportunity)
	assert.Contains(t, out, "opp-cli-1: invalid")
}

func TestConfigure_OnlyChangesPassedFlags(t *testing.T) {
	cfgPath := writeConfig(t, rpcServer(t).URL)

	_, err := runCmd(t, "--config", cfgPath, "configure", "-u", "user-3", "--network", "testnet", "--max-gas-gwei", "80")
	require.NoError(t, err)

	out, err := runCmd(t, "--config", cfgPath, "configure", "-u", "user-3", "--chat-id", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "network:          testnet")
	assert.Contains(t, out, "max gas (gwei):   80")
	assert.Contains(t, out, "telegram chat:    42")

	_, err = runCmd(t, "--config", cfgPath, "configure", "-u", "user-3", "--network", "devnet")
	assert.Error(t, err)
}

func TestDecodeOpportunity(t *testing.T) {
	opp, err := decodeOpportunity(strings.NewReader(`{"id":"x","flashLoanAmount":"5","netProfitPercent":0.5,"createdAt":"2026-01-02T15:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", opp.ID)
	assert.True(t, opp.NetProfitPercent.Equal(decimal.NewFromFloat(0.5)))

	_, err = decodeOpportunity(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestResolveToken(t *testing.T) {
	reg := asset.DefaultRegistry()

	usdc, err := resolveToken(reg, 137, "usdc")
	require.NoError(t, err)
	assert.Equal(t, "USDC", usdc.Symbol())

	byAddr, err := resolveToken(reg, 137, usdc.Address().Hex())
	require.NoError(t, err)
	assert.True(t, byAddr.Equals(usdc))

	_, err = resolveToken(reg, 137, "NOPE")
	assert.Error(t, err)
}

func TestHistoryRows(t *testing.T) {
	rows := historyRows([]*domain.ArbitrageTransaction{{
		TokenInSymbol:  "USDC",
		TokenOutSymbol: "WETH",
		DEXPath:        "a -> b",
		NetProfitUSD:   decimal.RequireFromString("1.005"),
		Status:         domain.StatusSuccess,
		Simulated:      true,
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, "USDC/WETH", rows[0].Pair)
	assert.Equal(t, "sim", rows[0].Mode)
	assert.Equal(t, "success", rows[0].Status)
}
