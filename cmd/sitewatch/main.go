package main

import (
	"github.com/vietddude/sitewatch/internal/cli"
)

func main() {
	cli.Execute()
}
