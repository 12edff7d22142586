// Package artifact loads compiled contract artifacts, links libraries into
// their bytecode and ABI-encodes constructor and call arguments.
//
// Two layouts are read: the Hardhat artifacts tree, where each contract has
// a <Name>.json next to a <Name>.dbg.json pointing at its build info, and
// external artifacts that carry only abi and bytecode. Struct parameters are
// passed as Tuple values keyed by their Solidity names.
package artifact
