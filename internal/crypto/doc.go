// Package crypto holds the signing primitives used by thetaops.
//
// Contents
//
//   - secp256k1 key generation, hex import and address derivation
//     (GenerateKey, ParseKey, KeyRecord, Unlock)
//   - EIP-712 typed-data signing and recovery (SignTypedData, Recover)
//   - EIP-2612 permit signatures (SignPermit)
//   - signed swap bids (SignBid)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// Signatures are returned split into v, r and s with v normalised to 27 or 28,
// the form on-chain permit and bid verifiers accept.
package crypto
