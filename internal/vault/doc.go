// Package vault holds Theta Vault arithmetic (WAD multiplication, share
// conversion, rollover balances) and a JSON-RPC reader for vault state.
package vault
