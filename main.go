package main

import (
	"os"

	"github.com/mezzolang/mezzo/cmd"
	"github.com/mezzolang/mezzo/driver"
)

func main() {
	err := cmd.RootCmd.Execute()
	if err != nil {
		code := cmd.LastExitCode
		if code == driver.ExitOK {
			code = driver.ExitTypeError
		}
		os.Exit(int(code))
	}
}
