// Package commands defines the planwizard CLI.
//
// Commands
//
//   - (root)        Run the issuance wizard with the version monitor
//   - config init   Write the default configuration file
//   - submissions   List stored proposals
//   - state         Show local state and cached response count
//   - state unset   Remove one local state key
//   - reset         Delete stored proposals and cached responses
//
// The root command loads configuration once; subcommands open the local
// database and logger they need through openEnv.
package commands
