// Package main is the entry point for the cfblog binary.
package main

import "github.com/cfblog/cfblog-web/internal/cli"

func main() {
	cli.Execute()
}
