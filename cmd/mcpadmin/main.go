package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/viant/mcpadmin/cli"
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}
