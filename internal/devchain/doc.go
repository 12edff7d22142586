// Package devchain drives a Hardhat node forking a live network: cheat codes
// for time, balances, impersonation and snapshots, plus the token, oracle and
// auction moves integration tests make between vault rounds.
package devchain
