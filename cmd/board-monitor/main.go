// board-monitor prints the raw and calibrated readings of the IO board, to
// help choosing min/max values for the event map.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/JeanRibes/midi-controller/config"
	"github.com/JeanRibes/midi-controller/engine"
	"github.com/JeanRibes/midi-controller/hardware"
	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
)

var (
	pinStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	faultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// bar draws a level as a 32 cell gauge, lit once it crosses the on threshold.
func bar(level uint8) string {
	n := int(level) / 4
	style := offStyle
	if level >= engine.OnThreshold {
		style = onStyle
	}
	return style.Render(strings.Repeat("#", n)) + strings.Repeat(".", 32-n)
}

func main() {
	portName := flag.String("port", "", "serial port, e.g. /dev/ttyUSB0 (default: first found)")
	baud := flag.Int("baud", 115200, "serial baud rate")
	configFile := flag.String("config", "controller.yaml", "event map file, for pin calibration")
	interval := flag.Duration("interval", 250*time.Millisecond, "print interval")
	flag.Parse()

	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:  charmlog.InfoLevel,
		Prefix: "monitor",
	})

	ports, err := hardware.Ports()
	he(logger, err)
	if len(ports) == 0 {
		logger.Fatal("No serial ports found!")
	}
	for _, port := range ports {
		fmt.Printf("Found port: %v\n", port)
	}
	if *portName == "" {
		portName = &ports[0]
	}

	pins := []engine.Pin{}
	if cfg, err := config.Load(*configFile); err == nil {
		pins = cfg.EnginePins()
	} else {
		logger.Warn("no calibration, showing raw values only", "err", err)
	}

	board, err := hardware.Open(*portName, *baud, logger)
	he(logger, err)
	defer board.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for i, p := range pins {
				if !p.Type.IsInput() {
					continue
				}
				raw, err := board.Read(p.Num)
				if err != nil {
					fmt.Printf("%s %s\n", pinStyle.Render(fmt.Sprintf("pin %d (hw %d)", i, p.Num)), faultStyle.Render(err.Error()))
					continue
				}
				level := engine.Level(p, raw)
				fmt.Printf("%s raw %4d level %3d %s\n",
					pinStyle.Render(fmt.Sprintf("pin %d (hw %d, %s)", i, p.Num, p.Type)), raw, level, bar(level))
			}
			if len(pins) == 0 {
				for num := 0; num < 64; num++ {
					if raw, err := board.Read(num); err == nil {
						fmt.Printf("hw %d: raw %4d\n", num, raw)
					}
				}
			}
		}
	}
}

func he(logger *charmlog.Logger, err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
