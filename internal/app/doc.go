// Package app wires application dependencies for the CLI.
//
// It loads Config from defaults, a TOML file and the environment, then
// builds the stores, explorer and aggregator clients, and the deployment
// environment commands run scripts in.
package app
