package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// DefaultBase is the Etherscan multichain API endpoint.
const DefaultBase = "https://api.etherscan.io/v2/api"

// ErrVerificationFailed is returned when the explorer rejects the source.
var ErrVerificationFailed = errors.New("verification failed")

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Etherscan verifies contracts through an Etherscan-compatible API.
type Etherscan struct {
	Base         string
	APIKey       string
	ChainID      domain.ChainID
	HTTP         *http.Client
	PollInterval time.Duration

	log *zap.Logger
}

var _ domain.Verifier = (*Etherscan)(nil)

// NewEtherscan returns a client for chainID. An empty base selects DefaultBase.
func NewEtherscan(base, apiKey string, chainID domain.ChainID, log *zap.Logger) *Etherscan {
	if base == "" {
		base = DefaultBase
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Etherscan{
		Base:         base,
		APIKey:       apiKey,
		ChainID:      chainID,
		HTTP:         http.DefaultClient,
		PollInterval: 5 * time.Second,
		log:          log,
	}
}

// Verify submits req and waits for the explorer's verdict. A contract that
// is already verified counts as success.
func (c *Etherscan) Verify(ctx context.Context, req domain.VerifyRequest) error {
	if c.APIKey == "" {
		return errors.New("etherscan: no api key")
	}
	form := url.Values{
		"module":                {"contract"},
		"action":                {"verifysourcecode"},
		"apikey":                {c.APIKey},
		"codeformat":            {"solidity-standard-json-input"},
		"sourceCode":            {string(req.StandardJSON)},
		"contractaddress":       {req.Address.Hex()},
		"contractname":          {req.ContractName},
		"compilerversion":       {"v" + strings.TrimPrefix(req.CompilerVersion, "v")},
		"constructorArguements": {hex.EncodeToString(req.ConstructorArgs)},
	}
	submit, err := c.post(ctx, form)
	if err != nil {
		return err
	}
	if submit.Status != "1" {
		if alreadyVerified(submit.Result) {
			c.log.Info("already verified", zap.Stringer("address", req.Address))
			return nil
		}
		return fmt.Errorf("%w: %s: %s", ErrVerificationFailed, submit.Message, submit.Result)
	}
	guid := submit.Result
	c.log.Debug("verification submitted", zap.Stringer("address", req.Address), zap.String("guid", guid))

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for {
		status, err := c.get(ctx, url.Values{
			"module": {"contract"},
			"action": {"checkverifystatus"},
			"guid":   {guid},
			"apikey": {c.APIKey},
		})
		if err != nil {
			return err
		}
		switch {
		case strings.HasPrefix(status.Result, "Pass"), alreadyVerified(status.Result):
			c.log.Info("verified", zap.Stringer("address", req.Address), zap.String("contract", req.ContractName))
			return nil
		case strings.HasPrefix(status.Result, "Pending"):
		default:
			return fmt.Errorf("%w: %s", ErrVerificationFailed, status.Result)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func alreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}

func (c *Etherscan) endpoint() string {
	return c.Base + "?chainid=" + strconv.FormatUint(uint64(c.ChainID), 10)
}

func (c *Etherscan) post(ctx context.Context, form url.Values) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Etherscan) get(ctx context.Context, q url.Values) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"&"+q.Encode(), nil)
	if err != nil {
		return response{}, err
	}
	return c.do(req)
}

func (c *Etherscan) do(req *http.Request) (response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return response{}, fmt.Errorf("etherscan %s: %s", req.Method, resp.Status)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, fmt.Errorf("etherscan: decode response: %w", err)
	}
	return out, nil
}

// TryVerify runs v and logs a failure instead of returning it. It reports
// whether the contract ended up verified.
func TryVerify(ctx context.Context, v domain.Verifier, log *zap.Logger, req domain.VerifyRequest) bool {
	if v == nil {
		log.Warn("no verifier configured", zap.String("contract", req.ContractName))
		return false
	}
	if err := v.Verify(ctx, req); err != nil {
		log.Warn("verification failed", zap.String("contract", req.ContractName),
			zap.Stringer("address", req.Address), zap.Error(err))
		return false
	}
	return true
}
