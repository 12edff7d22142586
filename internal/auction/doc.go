// Package auction packs Gnosis EasyAuction orders and derives bid sizes and
// prices for the options auctions a vault runs every round.
package auction
