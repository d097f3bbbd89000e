package main

import (
	"github.com/proximalabs/proxima-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
