// Package main provides the accountdesk CLI.
package main

import "github.com/mesh-intelligence/accountdesk/internal/cli"

func main() {
	cli.Execute()
}
