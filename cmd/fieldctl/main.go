// Package main is the entry point for the fieldctl CLI.
package main

import "github.com/mesh-intelligence/datafields/internal/cli"

func main() {
	cli.Execute()
}
