package main

import (
	"os"

	"github.com/viant/agentspace/internal/cli"
	"github.com/viant/agentspace/internal/log"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.GetLogger().Errorf("%v", err)
		os.Exit(1)
	}
}
