package main

// sel-dump reads and optionally clears a BMC's System Event Log.

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/nwilkes/ipmibmc"

	"github.com/alecthomas/kingpin"
)

var (
	argBMCAddr = kingpin.Arg("addr", "IP[:port] of the BMC to read.").
			Required().
			String()
	flgUsername = kingpin.Flag("username", "The username to connect as.").
			Required().
			String()
	flgPassword = kingpin.Flag("password", "The password of the user to connect as.").
			Required().
			String()
	flgClear = kingpin.Flag("clear", "Clear the log after reading it.").
			Bool()
)

func splitAddr(addr string) (host string, opts bmc.SessionOpts) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, opts
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return addr, opts
	}
	opts.Port = uint16(port)
	return h, opts
}

func main() {
	kingpin.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	host, opts := splitAddr(*argBMCAddr)
	opts.Username = *flgUsername
	opts.Password = []byte(*flgPassword)

	sess, err := bmc.Open(ctx, host, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	entries, err := sess.ReadSEL(ctx, *flgClear)
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range entries {
		fmt.Println(e)
	}
	fmt.Printf("%d entries\n", len(entries))
}
