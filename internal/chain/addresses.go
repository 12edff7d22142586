package chain

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

//go:embed addresses.yaml
var defaultAddresses []byte

// ErrAddressNotFound is returned when a symbol has no entry on a chain.
var ErrAddressNotFound = errors.New("address not found")

// Book maps symbols to per-chain addresses.
type Book struct {
	entries map[string]map[domain.ChainID]common.Address
}

// ParseBook decodes a YAML address table of the form symbol -> chain id -> address.
func ParseBook(data []byte) (*Book, error) {
	var raw map[string]map[uint64]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse address book: %w", err)
	}
	b := &Book{entries: make(map[string]map[domain.ChainID]common.Address, len(raw))}
	for sym, byChain := range raw {
		for id, hex := range byChain {
			if !common.IsHexAddress(hex) {
				return nil, fmt.Errorf("address book: %s on chain %d: invalid address %q", sym, id, hex)
			}
			b.set(sym, domain.ChainID(id), common.HexToAddress(hex))
		}
	}
	return b, nil
}

var (
	defaultOnce sync.Once
	defaultBook *Book
)

// DefaultBook returns the embedded address book.
func DefaultBook() *Book {
	defaultOnce.Do(func() {
		b, err := ParseBook(defaultAddresses)
		if err != nil {
			panic(err)
		}
		defaultBook = b
	})
	return defaultBook
}

func (b *Book) set(symbol string, id domain.ChainID, addr common.Address) {
	symbol = strings.ToUpper(symbol)
	if b.entries[symbol] == nil {
		b.entries[symbol] = map[domain.ChainID]common.Address{}
	}
	b.entries[symbol][id] = addr
}

// With returns a copy of b with overrides applied on top.
func (b *Book) With(id domain.ChainID, overrides map[string]common.Address) *Book {
	out := &Book{entries: make(map[string]map[domain.ChainID]common.Address, len(b.entries))}
	for sym, byChain := range b.entries {
		for cid, addr := range byChain {
			out.set(sym, cid, addr)
		}
	}
	for sym, addr := range overrides {
		out.set(sym, id, addr)
	}
	return out
}

// Lookup returns the address of symbol on chain id.
func (b *Book) Lookup(symbol string, id domain.ChainID) (common.Address, error) {
	addr, ok := b.entries[strings.ToUpper(symbol)][id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s on chain %d", ErrAddressNotFound, symbol, id)
	}
	return addr, nil
}

// MustLookup is Lookup for tables that are known to be complete.
func (b *Book) MustLookup(symbol string, id domain.ChainID) common.Address {
	addr, err := b.Lookup(symbol, id)
	if err != nil {
		panic(err)
	}
	return addr
}

// Symbol returns the symbol registered for addr on chain id.
func (b *Book) Symbol(addr common.Address, id domain.ChainID) (string, bool) {
	for sym, byChain := range b.entries {
		if a, ok := byChain[id]; ok && a == addr {
			return sym, true
		}
	}
	return "", false
}

// Symbols returns every symbol with an entry on chain id, sorted.
func (b *Book) Symbols(id domain.ChainID) []string {
	var out []string
	for sym, byChain := range b.entries {
		if _, ok := byChain[id]; ok {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
