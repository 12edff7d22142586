// Package domain defines the records and contracts shared across thetaops.
// It contains plain types (deployments, signatures, requests) and interfaces
// only; concrete stores and clients live in their own packages.
package domain
