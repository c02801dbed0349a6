package main

import (
	"github.com/perftools/stackcollapse/internal/cmd"
	"github.com/perftools/stackcollapse/pkg/maxprocs"
)

func main() {
	maxprocs.Adjust()
	cmd.Execute()
}
