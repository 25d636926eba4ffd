package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-executor/internal/apperror"
	"github.com/fd1az/flashloan-executor/internal/asset"
	"github.com/fd1az/flashloan-executor/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

type fakeBackend struct {
	balance    *big.Int
	gasPrice   *big.Int
	gasCalls   atomic.Int32
	gasDelay   time.Duration
	balanceErr error
	closed     bool
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.gasCalls.Add(1)
	if f.gasDelay > 0 {
		time.Sleep(f.gasDelay)
	}
	return f.gasPrice, nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) { return 42, nil }
func (f *fakeBackend) Close()                                          { f.closed = true }

func newTestNetwork(t *testing.T, backend *fakeBackend) *Network {
	t.Helper()
	n, err := NewNetwork(Config{
		Endpoints: []Endpoint{{ChainID: asset.ChainIDPolygon, RPCURL: "fake://polygon"}},
		Dialer: func(ctx context.Context, rpcURL string) (Backend, error) {
			return backend, nil
		},
		GasPriceTTL: time.Minute,
	}, asset.DefaultRegistry(), &mockLogger{})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	t.Cleanup(func() { n.Close() })
	return n
}

func TestNetwork_GetNativeBalance(t *testing.T) {
	backend := &fakeBackend{balance: big.NewInt(250_000_000_000_000_000)}
	n := newTestNetwork(t, backend)

	bal, err := n.GetNativeBalance(context.Background(), common.HexToAddress("0x1"), asset.ChainIDPolygon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.Formatted().String() != "0.25" {
		t.Errorf("formatted = %s, want 0.25", bal.Formatted())
	}
}

func TestNetwork_GetNativeBalance_WrapsRPCError(t *testing.T) {
	backend := &fakeBackend{balanceErr: errors.New("connection refused")}
	n := newTestNetwork(t, backend)

	_, err := n.GetNativeBalance(context.Background(), common.HexToAddress("0x1"), asset.ChainIDPolygon)
	if apperror.GetCode(err) != apperror.CodeRPCError {
		t.Errorf("expected RPC_ERROR, got %v", err)
	}
}

func TestNetwork_UnsupportedChain(t *testing.T) {
	n := newTestNetwork(t, &fakeBackend{})

	_, err := n.GetGasPrice(context.Background(), 1)
	if apperror.GetCode(err) != apperror.CodeUnsupportedChain {
		t.Errorf("expected UNSUPPORTED_CHAIN, got %v", err)
	}
}

func TestNetwork_GetGasPrice_CachesAndDedupes(t *testing.T) {
	backend := &fakeBackend{gasPrice: big.NewInt(35_000_000_000), gasDelay: 20 * time.Millisecond}
	n := newTestNetwork(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gp, err := n.GetGasPrice(context.Background(), asset.ChainIDPolygon)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if gp.Gwei().String() != "35" {
				t.Errorf("gwei = %s, want 35", gp.Gwei())
			}
		}()
	}
	wg.Wait()

	if _, err := n.GetGasPrice(context.Background(), asset.ChainIDPolygon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls := backend.gasCalls.Load(); calls != 1 {
		t.Errorf("expected 1 RPC call, got %d", calls)
	}
}

func TestNetwork_CloseReleasesBackends(t *testing.T) {
	backend := &fakeBackend{}
	n := newTestNetwork(t, backend)

	if _, err := n.BlockNumber(context.Background(), asset.ChainIDPolygon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.Close()
	if !backend.closed {
		t.Error("expected backend to be closed")
	}
}
