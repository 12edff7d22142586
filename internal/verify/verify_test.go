package verify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
	"github.com/3jane-protocol/3jane-contracts/internal/verify"
)

type explorer struct {
	mu       sync.Mutex
	submit   map[string]string
	statuses []string
	polls    int
	reply    map[string]string
}

func (e *explorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.URL.Query().Get("chainid") != "1" {
		http.Error(w, "bad chain", http.StatusBadRequest)
		return
	}
	switch {
	case r.Method == http.MethodPost:
		_ = r.ParseForm()
		e.submit = map[string]string{}
		for k := range r.PostForm {
			e.submit[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(e.reply)
	case r.URL.Query().Get("action") == "checkverifystatus":
		res := e.statuses[e.polls]
		e.polls++
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "1", "message": "OK", "result": res})
	default:
		http.NotFound(w, r)
	}
}

func request() domain.VerifyRequest {
	return domain.VerifyRequest{
		Address:         common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		ContractName:    "contracts/vaultsV2/EthenaDepositHelper.sol:EthenaDepositHelper",
		CompilerVersion: "0.8.4+commit.c7e474f2",
		StandardJSON:    []byte(`{"language":"Solidity"}`),
		ConstructorArgs: []byte{0x01, 0x02},
	}
}

func newClient(t *testing.T, e *explorer) *verify.Etherscan {
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	c := verify.NewEtherscan(srv.URL, "KEY", domain.ChainID(1), zap.NewNop())
	c.PollInterval = time.Millisecond
	return c
}

func TestVerify_PollsUntilPass(t *testing.T) {
	e := &explorer{
		reply:    map[string]string{"status": "1", "message": "OK", "result": "guid-1"},
		statuses: []string{"Pending in queue", "Pending in queue", "Pass - Verified"},
	}
	c := newClient(t, e)

	require.NoError(t, c.Verify(context.Background(), request()))
	assert.Equal(t, 3, e.polls)
	assert.Equal(t, "verifysourcecode", e.submit["action"])
	assert.Equal(t, "solidity-standard-json-input", e.submit["codeformat"])
	assert.Equal(t, "v0.8.4+commit.c7e474f2", e.submit["compilerversion"])
	assert.Equal(t, "0102", e.submit["constructorArguements"])
	assert.Equal(t, request().ContractName, e.submit["contractname"])
	assert.Equal(t, `{"language":"Solidity"}`, e.submit["sourceCode"])
}

func TestVerify_AlreadyVerified(t *testing.T) {
	e := &explorer{reply: map[string]string{"status": "0", "message": "NOTOK", "result": "Contract source code already verified"}}
	c := newClient(t, e)
	require.NoError(t, c.Verify(context.Background(), request()))
	assert.Zero(t, e.polls)
}

func TestVerify_Fail(t *testing.T) {
	e := &explorer{
		reply:    map[string]string{"status": "1", "message": "OK", "result": "guid-1"},
		statuses: []string{"Fail - Unable to verify"},
	}
	c := newClient(t, e)
	err := c.Verify(context.Background(), request())
	require.ErrorIs(t, err, verify.ErrVerificationFailed)

	e.reply = map[string]string{"status": "0", "message": "NOTOK", "result": "Invalid API Key"}
	err = c.Verify(context.Background(), request())
	require.ErrorIs(t, err, verify.ErrVerificationFailed)
}

func TestVerify_NoKey(t *testing.T) {
	c := verify.NewEtherscan("", "", domain.ChainID(1), nil)
	assert.Equal(t, verify.DefaultBase, c.Base)
	require.Error(t, c.Verify(context.Background(), request()))
}

type failing struct{ calls int }

func (f *failing) Verify(context.Context, domain.VerifyRequest) error {
	f.calls++
	return errors.New("explorer down")
}

func TestTryVerify(t *testing.T) {
	f := &failing{}
	assert.False(t, verify.TryVerify(context.Background(), f, zap.NewNop(), request()))
	assert.Equal(t, 1, f.calls)
	assert.False(t, verify.TryVerify(context.Background(), nil, zap.NewNop(), request()))

	e := &explorer{reply: map[string]string{"status": "0", "result": "Already Verified"}}
	assert.True(t, verify.TryVerify(context.Background(), newClient(t, e), zap.NewNop(), request()))
}
