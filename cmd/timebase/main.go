package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/BYTE-6D65/timebase/pkg/clock"
	"github.com/BYTE-6D65/timebase/pkg/timestamp"
)

const version = "0.1.0"

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})

	// If no arguments or "demo", launch the interactive inspector
	if len(os.Args) < 2 || os.Args[1] == "demo" {
		sourceName := "system"
		if len(os.Args) > 2 {
			sourceName = os.Args[2]
		}

		src, ok := buildRegistry().Lookup(sourceName)
		if !ok {
			logrus.Fatalf("unknown tick source %q (try 'system' or 'synthetic')", sourceName)
		}
		timestamp.SetSource(src)

		if err := startTUI(sourceName, src); err != nil {
			logrus.WithError(err).Fatal("inspector error")
		}
		return
	}

	cmd := os.Args[1]

	switch cmd {
	case "version":
		fmt.Printf("timebase v%s\n", version)
		fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	case "help", "-h", "--help":
		usage()
		return
	default:
		logrus.Fatalf("unknown command %q (try 'timebase help')", cmd)
	}
}

// buildRegistry assembles the selectable tick sources for the inspector.
func buildRegistry() *clock.Registry {
	reg := clock.NewRegistry()
	reg.Register("system", clock.NewSystemSource())

	// 24 MHz synthetic counter, advanced by the inspector itself
	reg.Register("synthetic", clock.NewManualSource(clock.Timebase{Numer: 125, Denom: 3}))
	return reg
}

func usage() {
	fmt.Fprintf(os.Stderr, `Timebase - Dual-Domain Audio Timestamp Inspector

Usage:
  timebase [demo] [source]
      Launch the interactive inspector against a tick source
      (source: "system" or "synthetic", default "system")

  timebase version
      Show version and platform information

  timebase help
      Show this help message

Examples:
  # Inspect the system monotonic clock
  timebase

  # Inspect a deterministic 24 MHz synthetic counter
  timebase demo synthetic

  # Show version
  timebase version

About:
  Timebase is an audio timestamp library for Go. A timestamp can carry a
  hardware tick count, a sample frame position at a known rate, or both;
  one-representation timestamps are resolved by extrapolating against a
  fully resolved anchor.

  The inspector shows the live tick counter, the cached tick conversion
  ratios, a simulated 48 kHz render anchor, and the anchor updates flowing
  through the feed.
`)
}
