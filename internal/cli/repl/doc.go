// Package repl is the interactive mode of lwm2m-seccfg-cli. Each line is
// split into words and run as one CLI invocation.
package repl
