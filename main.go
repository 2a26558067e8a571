package main

import (
	"github.com/saiful3278/Screenshare-fronted/cmd"
	"github.com/saiful3278/Screenshare-fronted/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
