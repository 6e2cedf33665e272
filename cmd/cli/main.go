package main

import (
	"github.com/mchmarny/scoreproxy/pkg/cli"
)

func main() {
	cli.Execute()
}
