package main

// chassis-control sends a chassis control command to a system, e.g. to power it
// on, or do a hard reset.

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/nwilkes/ipmibmc"
	"github.com/nwilkes/ipmibmc/pkg/ipmi"

	"github.com/alecthomas/kingpin"
)

var (
	argBMCAddr = kingpin.Arg("addr", "IP[:port] of the BMC to control.").
			Required().
			String()
	argCommand = kingpin.Arg("command", "The command to send (on/off/cycle/reset/interrupt/softoff).").
			Required().
			String()
	flgUsername = kingpin.Flag("username", "The username to connect as.").
			Required().
			String()
	flgPassword = kingpin.Flag("password", "The password of the user to connect as.").
			Required().
			String()

	cmdControls = map[string]ipmi.ChassisControl{
		"off":       ipmi.ChassisControlPowerOff,
		"on":        ipmi.ChassisControlPowerOn,
		"cycle":     ipmi.ChassisControlPowerCycle,
		"reset":     ipmi.ChassisControlHardReset,
		"interrupt": ipmi.ChassisControlDiagnosticInterrupt,
		"softoff":   ipmi.ChassisControlSoftPowerOff,
	}
)

func lookupCommand(cmd string) (ipmi.ChassisControl, error) {
	if ctrl, ok := cmdControls[cmd]; ok {
		return ctrl, nil
	}
	return ipmi.ChassisControlPowerOff, fmt.Errorf("invalid command: %v", cmd)
}

// splitAddr pulls an optional port out of an "IP[:port]" argument, leaving
// SessionOpts.Port at its default (623) when none is given.
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

	cmd, err := lookupCommand(*argCommand)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	host, opts := splitAddr(*argBMCAddr)
	opts.Username = *flgUsername
	opts.Password = []byte(*flgPassword)
	opts.PrivilegeLevel = ipmi.PrivilegeLevelOperator

	sess, err := bmc.Open(ctx, host, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	log.Printf("connected to %v", sess.Handle())

	if err := sess.ChassisControl(ctx, cmd); err != nil {
		log.Fatal(err)
	}
}
