package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned when no artifact matches a contract name.
var ErrNotFound = errors.New("artifact not found")

// Loader finds artifacts by contract name under one or more roots, usually
// the Hardhat artifacts directory followed by a directory of external
// artifacts. The first root holding a match wins.
type Loader struct {
	roots []string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewLoader returns a Loader over roots. Empty roots are ignored.
func NewLoader(roots ...string) *Loader {
	var rs []string
	for _, r := range roots {
		if r != "" {
			rs = append(rs, r)
		}
	}
	return &Loader{roots: rs, cache: map[string]*Artifact{}}
}

// Load returns the artifact for name, either a bare contract name or
// "source/path.sol:Name".
func (l *Loader) Load(name string) (*Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.cache[name]; ok {
		return a, nil
	}
	source, contract := "", name
	if i := strings.LastIndex(name, ":"); i >= 0 {
		source, contract = name[:i], name[i+1:]
	}
	for _, root := range l.roots {
		paths, err := find(root, contract)
		if err != nil {
			return nil, err
		}
		var matches []*Artifact
		for _, p := range paths {
			a, err := readArtifact(p)
			if err != nil {
				return nil, err
			}
			if source != "" && a.SourceName != source {
				continue
			}
			matches = append(matches, a)
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			l.cache[name] = matches[0]
			return matches[0], nil
		default:
			return nil, fmt.Errorf("%d artifacts named %s under %s; use source:Name", len(matches), contract, root)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func find(root, contract string) ([]string, error) {
	want := contract + ".json"
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return out, nil
}

func readArtifact(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.ContractName == "" {
		a.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	a.path = path
	return a, nil
}

// BuildInfo is the compiler run that produced an artifact.
type BuildInfo struct {
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// CompilerVersion returns the version string explorers expect, e.g.
// "v0.8.4+commit.c7e474f2".
func (b *BuildInfo) CompilerVersion() string {
	return "v" + b.SolcLongVersion
}

// LinkedInput returns the standard JSON input with the libraries a was
// linked against listed under settings.libraries. Explorers cannot rebuild
// linked bytecode without them.
func (b *BuildInfo) LinkedInput(a *Artifact, libraries map[string]common.Address) ([]byte, error) {
	if len(a.LinkReferences) == 0 {
		return b.Input, nil
	}
	var input map[string]any
	if err := json.Unmarshal(b.Input, &input); err != nil {
		return nil, fmt.Errorf("decode compiler input: %w", err)
	}
	settings, _ := input["settings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
	}
	libs, _ := settings["libraries"].(map[string]any)
	if libs == nil {
		libs = map[string]any{}
	}
	for source, refs := range a.LinkReferences {
		entry, _ := libs[source].(map[string]any)
		if entry == nil {
			entry = map[string]any{}
		}
		for name := range refs {
			addr, err := libraryAddress(libraries, source, name)
			if err != nil {
				return nil, err
			}
			entry[name] = addr.Hex()
		}
		libs[source] = entry
	}
	settings["libraries"] = libs
	input["settings"] = settings
	return json.Marshal(input)
}

// BuildInfo reads the build info referenced by the artifact's .dbg.json.
// External artifacts have none.
func (l *Loader) BuildInfo(a *Artifact) (*BuildInfo, error) {
	if a.path == "" {
		return nil, fmt.Errorf("%s was not loaded from disk", a.ContractName)
	}
	dbgPath := strings.TrimSuffix(a.path, ".json") + ".dbg.json"
	b, err := os.ReadFile(dbgPath)
	if err != nil {
		return nil, fmt.Errorf("build info for %s: %w", a.ContractName, err)
	}
	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(b, &dbg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return nil, fmt.Errorf("%s names no build info", dbgPath)
	}
	infoPath := dbg.BuildInfo
	if !filepath.IsAbs(infoPath) {
		infoPath = filepath.Join(filepath.Dir(dbgPath), infoPath)
	}
	raw, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, fmt.Errorf("build info for %s: %w", a.ContractName, err)
	}
	var info BuildInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", infoPath, err)
	}
	return &info, nil
}
