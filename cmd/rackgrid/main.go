// Package main provides the rackgrid CLI.
package main

import "github.com/mesh-intelligence/rackgrid/internal/cli"

func main() {
	cli.Execute()
}
