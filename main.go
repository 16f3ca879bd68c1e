package main

import (
	"github.com/pyneda/gqlsentinel/cmd"
	"github.com/pyneda/gqlsentinel/pkg/config"
)

func main() {
	config.LoadConfig()
	cmd.Execute()
}
