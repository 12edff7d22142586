// Package verify submits deployed contracts to a block explorer for source
// verification.
package verify
