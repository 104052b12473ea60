package main

// fru-dump reads and prints a BMC's FRU inventory areas.

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
	flgFRUID = kingpin.Flag("fru-id", "FRU device id to read.").
			Default("0").
			Uint8()
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	host, opts := splitAddr(*argBMCAddr)
	opts.Username = *flgUsername
	opts.Password = []byte(*flgPassword)

	sess, err := bmc.Open(ctx, host, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	fru, err := sess.ReadFRU(ctx, *flgFRUID)
	if err != nil {
		log.Fatal(err)
	}

	if b := fru.Board; b != nil {
		fmt.Printf("board: manufacturer=%q product=%q serial=%q part=%q\n",
			b.Manufacturer.String(b.LanguageCode), b.ProductName.String(b.LanguageCode),
			b.SerialNumber.String(b.LanguageCode), b.PartNumber.String(b.LanguageCode))
	}
	if p := fru.Product; p != nil {
		fmt.Printf("product: manufacturer=%q product=%q serial=%q part=%q\n",
			p.Manufacturer.String(p.LanguageCode), p.ProductName.String(p.LanguageCode),
			p.SerialNumber.String(p.LanguageCode), p.PartNumber.String(p.LanguageCode))
	}
	if c := fru.Chassis; c != nil {
		fmt.Printf("chassis: type=0x%02x part=%q serial=%q\n",
			c.Type, c.PartNumber.String(0), c.SerialNumber.String(0))
	}
	for _, rec := range fru.MultiRecords {
		fmt.Printf("multirecord: type=%v bytes=%d\n", rec.Type, len(rec.Data))
	}
}
