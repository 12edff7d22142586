// Package chain knows the networks thetaops deploys to: chain ids, network
// name suffixes, the embedded address book and per-asset parameters such as
// strike delta steps and pinned fork blocks.
package chain
