// Package commands defines the thetaops CLI and wires dependencies for subcommands.
//
// Commands
//
//   - keystore init|import|address  Manage the sealed deployer key
//   - deploy                        Run deployment scripts by tag
//   - deployments list|show         Inspect recorded deployments
//   - sign permit|bid               Sign EIP-712 permits and swap bids
//   - order encode|decode           Convert Gnosis auction orders
//   - auction min-price             Read the latest auction's minimum price
//   - quote                         Fetch 1inch swap calldata
//
// # Implementation
//
// The root command loads configuration (defaults, thetaops.toml, --network,
// then .env and the process environment) and builds the app before any
// subcommand runs.
package commands
