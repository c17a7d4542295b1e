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
	"github.com/JeanRibes/midi-controller/midiio"
	"github.com/JeanRibes/midi-controller/music"
	"github.com/JeanRibes/midi-controller/shared"
	charmlog "github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
)

func main() {
	configFile := flag.String("config", "controller.yaml", "event map file")
	portName := flag.String("serial", "/dev/ttyACM0", "serial port of the IO board")
	baud := flag.Int("baud", 115200, "serial baud rate")
	inPort := flag.String("input", "", "MIDI input port name (program changes)")
	outPort := flag.String("output", "", "MIDI output port name")
	thru := flag.Bool("thru", false, "forward unhandled MIDI input to the output")
	record := flag.String("record", "", "save every sent message to this MIDI file on exit")
	quantize := flag.Bool("quantize", false, "snap recorded notes to the beat grid before saving")
	debug := flag.Bool("debug", false, "debug logging")
	list := flag.Bool("list", false, "list serial and MIDI ports and exit")
	flag.Parse()

	level := charmlog.InfoLevel
	if *debug {
		level = charmlog.DebugLevel
	}
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportCaller:    *debug,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "controller",
	})

	defer midi.CloseDriver()

	if *list {
		listPorts()
		return
	}

	if err := run(logger, *configFile, *portName, *baud, *inPort, *outPort, *thru, *record, *quantize); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *charmlog.Logger, configFile, portName string, baud int, inPort, outPort string, thru bool, record string, quantize bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "file", configFile, "pins", len(cfg.Pins), "events", len(cfg.Events))

	board, err := hardware.Open(portName, baud, logger.WithPrefix("board"))
	if err != nil {
		return err
	}
	defer board.Close()

	midiLog := logger.WithPrefix("midi")
	out, err := midiio.OpenOut(outPort, true, midiLog)
	if err != nil {
		return err
	}
	logger.Info("connecting to", "output", out.String())
	send, err := midiio.Sender(out)
	if err != nil {
		return err
	}

	var recorder *music.Recorder
	if record != "" {
		recorder = music.NewRecorder(send)
		send = recorder.Send
	}

	inbox := make(chan shared.Message, 16)
	in, err := midiio.OpenIn(inPort, true, midiLog)
	if err != nil {
		return err
	}
	logger.Info("connecting to", "input", in.String())
	var thruSend engine.SendFunc
	if thru {
		thruSend = send
	}
	stop, err := midiio.NewListener(inbox, thruSend, midiLog).Listen(in)
	if err != nil {
		return fmt.Errorf("listen %s: %w", in.String(), err)
	}
	defer stop()

	table := engine.NewTable(cfg.EnginePins(), cfg.Entries(), cfg.Filter(), logger.WithPrefix("table"))
	eng := engine.New(table, board, send, board, logger.WithPrefix("engine"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = eng.Run(ctx, cfg.ScanInterval, inbox)
	logger.Info("stop")

	if recorder != nil {
		if !strings.HasSuffix(record, ".mid") {
			record += ".mid"
		}
		logger.Info("saving capture", "file", record, "messages", recorder.Len(), "quantize", quantize)
		if serr := recorder.SaveToFile(record, quantize); serr != nil {
			logger.Error("save capture", "err", serr)
		}
	}
	return err
}

func listPorts() {
	ports, err := hardware.Ports()
	if err != nil {
		fmt.Println("serial:", err)
	}
	for _, port := range ports {
		fmt.Printf("serial: %v\n", port)
	}
	ins, outs := midiio.Ports()
	for _, p := range ins {
		fmt.Printf("midi in: %v\n", p)
	}
	for _, p := range outs {
		fmt.Printf("midi out: %v\n", p)
	}
}
