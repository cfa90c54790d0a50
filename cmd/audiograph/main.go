// ABOUTME: audiograph CLI entry point
// ABOUTME: Delegates to the cli package
package main

import "github.com/sessioncast/audiograph/internal/cli"

func main() {
	cli.Execute()
}
