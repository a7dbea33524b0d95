package main

import (
	"github.com/epfpro/reviewscope/cmd"
)

func main() {
	cmd.Execute()
}
