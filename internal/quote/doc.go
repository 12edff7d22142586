// Package quote fetches DEX aggregator calldata used by deposit helpers that
// swap the deposited asset before entering a vault.
package quote
