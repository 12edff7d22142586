package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

// DefaultBase is the 1inch developer portal endpoint.
const DefaultBase = "https://api.1inch.dev"

// ErrNoRoute is returned when the aggregator answers with an error body.
var ErrNoRoute = errors.New("no swap route")

// OneInch fetches swap calldata from the 1inch v6 swap API.
type OneInch struct {
	Base   string
	APIKey string
	HTTP   *http.Client

	log *zap.Logger
}

var _ domain.Quoter = (*OneInch)(nil)

// NewOneInch returns a client authenticating with apiKey.
func NewOneInch(base, apiKey string, log *zap.Logger) *OneInch {
	if base == "" {
		base = DefaultBase
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OneInch{Base: strings.TrimSuffix(base, "/"), APIKey: apiKey, HTTP: http.DefaultClient, log: log}
}

type swapResponse struct {
	DstAmount string `json:"dstAmount"`
	Tx        struct {
		To    common.Address `json:"to"`
		Data  hexutil.Bytes  `json:"data"`
		Value string         `json:"value"`
		Gas   uint64         `json:"gas"`
	} `json:"tx"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

// Swap asks for calldata swapping req.Amount of req.Src into req.Dst, sent
// from req.From.
func (c *OneInch) Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapQuote, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return domain.SwapQuote{}, errors.New("swap amount must be positive")
	}
	q := url.Values{
		"src":             {req.Src.Hex()},
		"dst":             {req.Dst.Hex()},
		"amount":          {req.Amount.String()},
		"from":            {req.From.Hex()},
		"slippage":        {strconv.FormatFloat(req.Slippage, 'f', -1, 64)},
		"disableEstimate": {strconv.FormatBool(req.DisableEstimate)},
	}
	u := fmt.Sprintf("%s/swap/v6.0/%d/swap?%s", c.Base, uint64(req.ChainID), q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.SwapQuote{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return domain.SwapQuote{}, fmt.Errorf("1inch swap: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.SwapQuote{}, fmt.Errorf("1inch swap: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Description != "" {
			return domain.SwapQuote{}, fmt.Errorf("%w: %s: %s", ErrNoRoute, resp.Status, e.Description)
		}
		return domain.SwapQuote{}, fmt.Errorf("1inch swap: %s", resp.Status)
	}

	var out swapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.SwapQuote{}, fmt.Errorf("1inch swap: decode: %w", err)
	}
	dst, ok := new(big.Int).SetString(out.DstAmount, 10)
	if !ok {
		return domain.SwapQuote{}, fmt.Errorf("1inch swap: bad dstAmount %q", out.DstAmount)
	}
	value := new(big.Int)
	if out.Tx.Value != "" {
		if _, ok := value.SetString(out.Tx.Value, 10); !ok {
			return domain.SwapQuote{}, fmt.Errorf("1inch swap: bad value %q", out.Tx.Value)
		}
	}
	c.log.Debug("swap quote",
		zap.Stringer("src", req.Src), zap.Stringer("dst", req.Dst),
		zap.Stringer("amount", req.Amount), zap.Stringer("dstAmount", dst))
	return domain.SwapQuote{
		DstAmount: dst,
		To:        out.Tx.To,
		Data:      out.Tx.Data,
		Value:     value,
		Gas:       out.Tx.Gas,
	}, nil
}
