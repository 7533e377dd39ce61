package main

import (
	"os"

	"github.com/cudaimg/build-tools/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
