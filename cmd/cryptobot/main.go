package main

import (
	"github.com/electriccapital/cryptobot/common/run"
	"github.com/electriccapital/cryptobot/tracker"
)

func main() {
	run.Init()

	tracker.RegisterPlugin()

	run.Run()
}
