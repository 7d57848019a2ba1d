// Command lilac is the CLI entrypoint for the query engine.
package main

import (
	"github.com/TaoKevinKK/lilac/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
