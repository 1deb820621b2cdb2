package main

import (
	"SyncWave/cmd"
)

func main() {
	cmd.Execute()
}
