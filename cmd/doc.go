// Package cmd wires the tigris binary together.
//
// # Startup
//
// Execute loads the configuration (defaults, yaml file, environment), sets
// up logging, loads the embedded command tree and builds the process
// environment handed to every handler: the state repository, the OAuth
// session, the credential resolver and the storage and IAM client
// factories.
//
// # Handler resolution
//
// Release binaries resolve handlers from the static table in
// internal/commands. Builds linked with
//
//	-ldflags "-X github.com/tigrisdata/cli/cmd.distribution=package"
//
// use the registry the command packages fill at init time instead.
// TIGRIS_CLI_LOADER=static|dynamic overrides either choice.
//
// # Exit status
//
// The cobra tree is built by internal/dispatch. Every failure is reported
// through dispatch.Report, which also maps it to the exit status. SIGINT
// and SIGTERM cancel the running command; a second signal exits at once.
package cmd
