// Command lcdtext initialises a character LCD and prints a line or two of
// text on it.
//
// The wiring is read from a JSON file:
//
//	{
//		"data": ["PE2", "PE1", "PE0", "PD6"],
//		"rs": "PB7", "rw": "PF4", "e": "PE3", "backlight": "PB6",
//		"aliases": {"PB7": "GPIO27", "PF4": "GPIO20", ...}
//	}
//
// aliases maps each pin's short name onto a GPIO name the host knows.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/DrJosh9000/lcd"
	"github.com/DrJosh9000/lcd/timebase"
)

var (
	configPath = flag.String("config", "lcd.json", "Wiring config file")
	text       = flag.String("text", "github.com/\nDrJosh9000/lcd", "Text to print, at most 32 bytes")
	slowdown   = flag.Int("slowdown", -1, "Bus timing slowdown factor (overrides the config when >= 0)")
	backlight  = flag.Bool("backlight", true, "Switch the backlight on, if wired")
	verbose    = flag.Bool("v", false, "Log every bus transfer")
)

type file struct {
	lcd.Config
	Aliases map[string]string `json:"aliases,omitempty"`
}

func load(path string) (*file, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg file
	if err := lcd.DecodeJSON(f, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	flag.Parse()
	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.TraceLevel)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("Failed to initialize periph.io: %v", err)
	}

	cfg, err := load(*configPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *configPath, err)
	}
	for alias, dest := range cfg.Aliases {
		if err := gpioreg.RegisterAlias(alias, dest); err != nil {
			log.Fatalf("Failed to alias %s to %s: %v", alias, dest, err)
		}
	}
	if *slowdown >= 0 {
		cfg.Slowdown = *slowdown
	}

	hw, err := timebase.Arm(timebase.NewMonotonicCounter(physic.GigaHertz), &timebase.Opts{
		Clock:  physic.GigaHertz,
		Logger: log,
	})
	if err != nil {
		log.Fatalf("Failed to arm the counter: %v", err)
	}

	dev, err := lcd.New(&cfg.Config, hw, &lcd.Opts{Logger: log})
	if err != nil {
		log.Fatalf("Failed to create display: %v", err)
	}
	if err := dev.Init(); err != nil {
		log.Fatalf("Failed to initialise %v: %v", dev, err)
	}
	if *backlight {
		if err := dev.Backlight(true); err != nil {
			log.Warnf("Backlight: %v", err)
		}
	}
	if err := dev.Print(*text); err != nil {
		log.Fatalf("Failed to print: %v", err)
	}
	log.WithField("dev", dev).Info("Printed")
}
