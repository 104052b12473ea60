package main

// ipmi-ping probes a host for RMCP/IPMI presence via an ASF ping.

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nwilkes/ipmibmc"

	"github.com/alecthomas/kingpin"
)

var (
	argHost = kingpin.Arg("host", "Host to probe.").
		Required().
		String()
	flgTimeout = kingpin.Flag("timeout", "How long to wait for a pong.").
			Default("1s").
			Duration()
)

func main() {
	kingpin.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *flgTimeout+time.Second)
	defer cancel()

	if bmc.Ping(ctx, *argHost, *flgTimeout) {
		fmt.Printf("%s: reachable, supports IPMI\n", *argHost)
		return
	}
	fmt.Printf("%s: unreachable or does not support IPMI\n", *argHost)
	os.Exit(1)
}
