// Package scripts holds the numbered deployment procedures for Theta Vaults
// and their deposit helpers, and the registry that selects them by tag and
// runs them in order.
//
// A procedure reads earlier deployments by name, builds constructor
// arguments from the address book and its parameters, deploys through the
// deployer and then tries to verify what it deployed. Verification failures
// are logged and never fail the run.
package scripts
