package main

import (
	"covidcurve/cmd/covidcurve/commands"
	"covidcurve/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
