package artifact

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMissingLibrary is returned by Link when bytecode references a library
// with no address supplied.
var ErrMissingLibrary = errors.New("missing library address")

// LinkRef is one placeholder in unlinked bytecode, in bytes.
type LinkRef struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Artifact is a compiled contract in the Hardhat artifact format. External
// artifacts carry only abi and bytecode.
type Artifact struct {
	ContractName   string                          `json:"contractName"`
	SourceName     string                          `json:"sourceName"`
	RawABI         json.RawMessage                 `json:"abi"`
	Bytecode       string                          `json:"bytecode"`
	LinkReferences map[string]map[string][]LinkRef `json:"linkReferences"`

	ABI  abi.ABI `json:"-"`
	path string
}

// Parse decodes an artifact JSON document.
func Parse(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.RawABI) == 0 {
		return nil, errors.New("artifact has no abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(a.RawABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi of %s: %w", a.ContractName, err)
	}
	a.ABI = parsed
	return &a, nil
}

// FullyQualifiedName returns "source:Name", the form explorers expect.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// Libraries returns the names of the libraries the bytecode must be linked
// against, sorted.
func (a *Artifact) Libraries() []string {
	var out []string
	for _, libs := range a.LinkReferences {
		for name := range libs {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Link returns the creation bytecode with every library placeholder replaced.
// Libraries are keyed by name or by "source:Name".
func (a *Artifact) Link(libraries map[string]common.Address) ([]byte, error) {
	code := []byte(strings.TrimPrefix(a.Bytecode, "0x"))
	for source, libs := range a.LinkReferences {
		for name, refs := range libs {
			addr, err := libraryAddress(libraries, source, name)
			if err != nil {
				return nil, err
			}
			enc := hex.EncodeToString(addr.Bytes())
			for _, ref := range refs {
				lo, hi := 2*ref.Start, 2*(ref.Start+ref.Length)
				if ref.Length != common.AddressLength || hi > len(code) {
					return nil, fmt.Errorf("bad link reference for %s at %d", name, ref.Start)
				}
				copy(code[lo:hi], enc)
			}
		}
	}
	out := make([]byte, hex.DecodedLen(len(code)))
	if _, err := hex.Decode(out, code); err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", a.ContractName, err)
	}
	return out, nil
}

func libraryAddress(libraries map[string]common.Address, source, name string) (common.Address, error) {
	if addr, ok := libraries[source+":"+name]; ok {
		return addr, nil
	}
	if addr, ok := libraries[name]; ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("%w: %s", ErrMissingLibrary, name)
}

// PackConstructor ABI-encodes constructor arguments. Tuple values are
// converted to the struct type the ABI expects.
func (a *Artifact) PackConstructor(args ...any) ([]byte, error) {
	conv, err := convertArgs(a.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s constructor: %w", a.ContractName, err)
	}
	return a.ABI.Pack("", conv...)
}

// Pack ABI-encodes a call to method, selector included.
func (a *Artifact) Pack(method string, args ...any) ([]byte, error) {
	m, ok := a.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%s has no method %q", a.ContractName, method)
	}
	conv, err := convertArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", a.ContractName, method, err)
	}
	return a.ABI.Pack(method, conv...)
}

// DeployData returns linked bytecode followed by the packed constructor
// arguments, plus the keccak256 of the linked bytecode.
func (a *Artifact) DeployData(libraries map[string]common.Address, args ...any) (data, ctorArgs []byte, codeHash common.Hash, err error) {
	code, err := a.Link(libraries)
	if err != nil {
		return nil, nil, common.Hash{}, err
	}
	if len(code) == 0 {
		return nil, nil, common.Hash{}, fmt.Errorf("%s has no bytecode", a.ContractName)
	}
	ctorArgs, err = a.PackConstructor(args...)
	if err != nil {
		return nil, nil, common.Hash{}, err
	}
	data = append(append([]byte{}, code...), ctorArgs...)
	return data, ctorArgs, crypto.Keccak256Hash(code), nil
}

// Event is a decoded log.
type Event struct {
	Name   string
	Fields map[string]any
}

// ParseLog decodes log with the artifact's events.
func (a *Artifact) ParseLog(log *types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return Event{}, errors.New("anonymous log")
	}
	ev, err := a.ABI.EventByID(log.Topics[0])
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", a.ContractName, err)
	}
	fields := map[string]any{}
	if len(log.Data) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
			return Event{}, fmt.Errorf("unpack %s: %w", ev.Name, err)
		}
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return Event{}, fmt.Errorf("topics %s: %w", ev.Name, err)
	}
	return Event{Name: ev.Name, Fields: fields}, nil
}
