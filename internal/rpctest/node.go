// Package rpctest runs an in-process JSON-RPC node that speaks the subset of
// eth_*, hardhat_* and evm_* methods thetaops uses, for tests.
//
// The node keeps just enough state to be useful: balances, code, nonces,
// receipts, a clock and snapshots. Contract behaviour is supplied per
// selector through CallHandlers and TxHandlers.
package rpctest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

// CallHandler answers an eth_call for one function selector.
type CallHandler func(to common.Address, input []byte) ([]byte, error)

// TxHandler applies a transaction for one function selector. A non-nil error
// produces a reverted receipt.
type TxHandler func(from, to common.Address, input []byte, value *big.Int) error

// Tx is a transaction the node has mined.
type Tx struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address
	Data  []byte
	Value *big.Int
	Raw   bool // submitted signed via eth_sendRawTransaction
}

// ResetParams mirrors the hardhat_reset argument.
type ResetParams struct {
	Forking *struct {
		JSONRPCURL  string `json:"jsonRpcUrl"`
		BlockNumber uint64 `json:"blockNumber"`
	} `json:"forking,omitempty"`
}

type state struct {
	block    uint64
	time     uint64
	next     uint64 // pending evm_setNextBlockTimestamp, 0 if unset
	balances map[common.Address]*big.Int
	code     map[common.Address][]byte
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	txs      []Tx
}

func (s state) clone() state {
	out := state{
		block:    s.block,
		time:     s.time,
		next:     s.next,
		balances: make(map[common.Address]*big.Int, len(s.balances)),
		code:     make(map[common.Address][]byte, len(s.code)),
		nonces:   make(map[common.Address]uint64, len(s.nonces)),
		receipts: make(map[common.Hash]*types.Receipt, len(s.receipts)),
		txs:      append([]Tx(nil), s.txs...),
	}
	for k, v := range s.balances {
		out.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range s.code {
		out.code[k] = v
	}
	for k, v := range s.nonces {
		out.nonces[k] = v
	}
	for k, v := range s.receipts {
		out.receipts[k] = v
	}
	return out
}

// Node is the fake chain. Exported fields may be set before the first call.
type Node struct {
	ChainID      uint64
	CallHandlers map[[4]byte]CallHandler
	TxHandlers   map[[4]byte]TxHandler

	mu           sync.Mutex
	st           state
	impersonated map[common.Address]bool
	snapshots    []state
	resets       []ResetParams
	methods      []string
}

// New returns a node at block 1, timestamp 1_700_000_000.
func New() *Node {
	return &Node{
		ChainID:      1,
		CallHandlers: map[[4]byte]CallHandler{},
		TxHandlers:   map[[4]byte]TxHandler{},
		impersonated: map[common.Address]bool{},
		st: state{
			block:    1,
			time:     1_700_000_000,
			balances: map[common.Address]*big.Int{},
			code:     map[common.Address][]byte{},
			nonces:   map[common.Address]uint64{},
			receipts: map[common.Hash]*types.Receipt{},
		},
	}
}

// Start serves n in-process and returns a connected client closed at test end.
func Start(t testing.TB, n *Node) *rpc.Client {
	t.Helper()
	srv := rpc.NewServer()
	for name, svc := range map[string]any{
		"eth":     &ethAPI{n},
		"hardhat": &hardhatAPI{n},
		"evm":     &evmAPI{n},
	} {
		if err := srv.RegisterName(name, svc); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	client := rpc.DialInProc(srv)
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

// Selector returns the 4-byte selector of a canonical signature.
func Selector(sig string) [4]byte {
	var s [4]byte
	copy(s[:], crypto.Keccak256([]byte(sig))[:4])
	return s
}

// Word left-pads v into a 32-byte ABI word.
func Word(v *big.Int) []byte { return common.LeftPadBytes(v.Bytes(), 32) }

// Txs returns the mined transactions in order.
func (n *Node) Txs() []Tx {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Tx(nil), n.st.txs...)
}

// Methods returns the JSON-RPC methods served so far.
func (n *Node) Methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...)
}

// Resets returns the hardhat_reset requests received.
func (n *Node) Resets() []ResetParams {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ResetParams(nil), n.resets...)
}

// Time returns the latest block timestamp.
func (n *Node) Time() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.st.time
}

// Impersonating reports whether addr is currently impersonated.
func (n *Node) Impersonating(addr common.Address) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.impersonated[addr]
}

// Balance returns the ether balance of addr.
func (n *Node) Balance(addr common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if b := n.st.balances[addr]; b != nil {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// SetCode installs code at addr.
func (n *Node) SetCode(addr common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.st.code[addr] = code
}

// Code returns the code at addr.
func (n *Node) Code(addr common.Address) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.st.code[addr]
}

func (n *Node) record(method string) {
	n.mu.Lock()
	n.methods = append(n.methods, method)
	n.mu.Unlock()
}

// apply mines tx and returns its receipt. Caller holds no lock.
func (n *Node) apply(tx Tx, nonce uint64) *types.Receipt {
	var handlerErr error
	if tx.To != nil && len(tx.Data) >= 4 {
		var sel [4]byte
		copy(sel[:], tx.Data[:4])
		if h, ok := n.TxHandlers[sel]; ok {
			handlerErr = h(tx.From, *tx.To, tx.Data, tx.Value)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.st.block++
	n.st.nonces[tx.From] = nonce + 1
	rcpt := &types.Receipt{
		Type:              types.DynamicFeeTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21_000,
		GasUsed:           21_000,
		Logs:              []*types.Log{},
		TxHash:            tx.Hash,
		BlockNumber:       new(big.Int).SetUint64(n.st.block),
		EffectiveGasPrice: big.NewInt(1),
	}
	switch {
	case handlerErr != nil:
		rcpt.Status = types.ReceiptStatusFailed
	case tx.To == nil:
		addr := crypto.CreateAddress(tx.From, nonce)
		n.st.code[addr] = tx.Data
		rcpt.ContractAddress = addr
	case tx.Value != nil && tx.Value.Sign() > 0:
		from := n.st.balances[tx.From]
		if from == nil || from.Cmp(tx.Value) < 0 {
			rcpt.Status = types.ReceiptStatusFailed
			break
		}
		from.Sub(from, tx.Value)
		to := n.st.balances[*tx.To]
		if to == nil {
			to = new(big.Int)
			n.st.balances[*tx.To] = to
		}
		to.Add(to, tx.Value)
	}
	n.st.txs = append(n.st.txs, tx)
	n.st.receipts[tx.Hash] = rcpt
	return rcpt
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
	Value *hexutil.Big    `json:"value"`
}

func (a callArgs) input() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

type ethAPI struct{ n *Node }

func (api *ethAPI) ChainId() hexutil.Uint64 {
	api.n.record("eth_chainId")
	return hexutil.Uint64(api.n.ChainID)
}

func (api *ethAPI) BlockNumber() hexutil.Uint64 {
	api.n.record("eth_blockNumber")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return hexutil.Uint64(api.n.st.block)
}

func (api *ethAPI) GetBlockByNumber(_ string, _ bool) (*types.Header, error) {
	api.n.record("eth_getBlockByNumber")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return &types.Header{
		Number:     new(big.Int).SetUint64(api.n.st.block),
		Time:       api.n.st.time,
		Difficulty: new(big.Int),
		GasLimit:   30_000_000,
		BaseFee:    big.NewInt(1_000_000_000),
		Extra:      []byte{},
	}, nil
}

func (api *ethAPI) Call(args callArgs, _ *string) (hexutil.Bytes, error) {
	api.n.record("eth_call")
	in := args.input()
	if args.To == nil || len(in) < 4 {
		return nil, errors.New("execution reverted")
	}
	var sel [4]byte
	copy(sel[:], in[:4])
	h, ok := api.n.CallHandlers[sel]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no handler for 0x%x", sel)
	}
	return h(*args.To, in)
}

func (api *ethAPI) EstimateGas(_ callArgs, _ *string) (hexutil.Uint64, error) {
	api.n.record("eth_estimateGas")
	return 1_000_000, nil
}

func (api *ethAPI) MaxPriorityFeePerGas() *hexutil.Big {
	api.n.record("eth_maxPriorityFeePerGas")
	return (*hexutil.Big)(big.NewInt(1_000_000_000))
}

func (api *ethAPI) GetCode(addr common.Address, _ *string) hexutil.Bytes {
	api.n.record("eth_getCode")
	return api.n.Code(addr)
}

func (api *ethAPI) GetBalance(addr common.Address, _ *string) *hexutil.Big {
	api.n.record("eth_getBalance")
	return (*hexutil.Big)(api.n.Balance(addr))
}

func (api *ethAPI) GetTransactionCount(addr common.Address, _ *string) hexutil.Uint64 {
	api.n.record("eth_getTransactionCount")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return hexutil.Uint64(api.n.st.nonces[addr])
}

func (api *ethAPI) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	api.n.record("eth_sendRawTransaction")
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(api.n.ChainID))
	from, err := types.Sender(signer, tx)
	if err != nil {
		return common.Hash{}, err
	}
	api.n.mu.Lock()
	want := api.n.st.nonces[from]
	api.n.mu.Unlock()
	if tx.Nonce() != want {
		return common.Hash{}, fmt.Errorf("nonce too low: have %d want %d", tx.Nonce(), want)
	}
	api.n.apply(Tx{Hash: tx.Hash(), From: from, To: tx.To(), Data: tx.Data(), Value: tx.Value(), Raw: true}, tx.Nonce())
	return tx.Hash(), nil
}

func (api *ethAPI) SendTransaction(args callArgs) (common.Hash, error) {
	api.n.record("eth_sendTransaction")
	if args.From == nil {
		return common.Hash{}, errors.New("missing from")
	}
	if !api.n.Impersonating(*args.From) {
		return common.Hash{}, fmt.Errorf("unknown account %s", args.From.Hex())
	}
	api.n.mu.Lock()
	nonce := api.n.st.nonces[*args.From]
	api.n.mu.Unlock()

	var seed [28]byte
	copy(seed[:20], args.From.Bytes())
	binary.BigEndian.PutUint64(seed[20:], nonce)
	tx := Tx{
		Hash: crypto.Keccak256Hash(seed[:]),
		From: *args.From,
		To:   args.To,
		Data: args.input(),
	}
	if args.Value != nil {
		tx.Value = args.Value.ToInt()
	}
	api.n.apply(tx, nonce)
	return tx.Hash, nil
}

func (api *ethAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	api.n.record("eth_getTransactionReceipt")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return api.n.st.receipts[hash]
}

type hardhatAPI struct{ n *Node }

func (api *hardhatAPI) ImpersonateAccount(addr common.Address) bool {
	api.n.record("hardhat_impersonateAccount")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.impersonated[addr] = true
	return true
}

func (api *hardhatAPI) StopImpersonatingAccount(addr common.Address) bool {
	api.n.record("hardhat_stopImpersonatingAccount")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	delete(api.n.impersonated, addr)
	return true
}

func (api *hardhatAPI) SetBalance(addr common.Address, wei hexutil.Big) bool {
	api.n.record("hardhat_setBalance")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.st.balances[addr] = new(big.Int).Set(wei.ToInt())
	return true
}

func (api *hardhatAPI) Reset(p *ResetParams) bool {
	api.n.record("hardhat_reset")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	var params ResetParams
	if p != nil {
		params = *p
		if p.Forking != nil {
			api.n.st.block = p.Forking.BlockNumber
		}
	}
	api.n.resets = append(api.n.resets, params)
	api.n.snapshots = nil
	return true
}

type evmAPI struct{ n *Node }

func (api *evmAPI) IncreaseTime(seconds uint64) string {
	api.n.record("evm_increaseTime")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.st.time += seconds
	return fmt.Sprint(seconds)
}

func (api *evmAPI) SetNextBlockTimestamp(ts uint64) (bool, error) {
	api.n.record("evm_setNextBlockTimestamp")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	if ts <= api.n.st.time {
		return false, fmt.Errorf("timestamp %d is lower than or equal to previous block's timestamp %d", ts, api.n.st.time)
	}
	api.n.st.next = ts
	return true, nil
}

func (api *evmAPI) Mine() string {
	api.n.record("evm_mine")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.st.block++
	if api.n.st.next != 0 {
		api.n.st.time, api.n.st.next = api.n.st.next, 0
	} else {
		api.n.st.time++
	}
	return "0"
}

func (api *evmAPI) Snapshot() string {
	api.n.record("evm_snapshot")
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.snapshots = append(api.n.snapshots, api.n.st.clone())
	return hexutil.EncodeUint64(uint64(len(api.n.snapshots)))
}

func (api *evmAPI) Revert(id string) (bool, error) {
	api.n.record("evm_revert")
	n, err := hexutil.DecodeUint64(id)
	if err != nil {
		return false, err
	}
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	if n == 0 || n > uint64(len(api.n.snapshots)) {
		return false, nil
	}
	api.n.st = api.n.snapshots[n-1]
	api.n.snapshots = api.n.snapshots[:n-1]
	return true, nil
}
