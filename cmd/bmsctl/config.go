package main

import (
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"periph.io/x/conn/v3/physic"

	"bmscode-go/console"
	"bmscode-go/drivers/ltc681x"
	"bmscode-go/services/monitor"
)

// loadConfig layers flags over BMSCTL_ environment variables over an
// optional bmsctl.json over the defaults below.
func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"bus":      "spidev", // spidev | ft232h
		"port":     "",       // spireg name; "" is the first port
		"freq":     "1MHz",
		"gpiochip": "gpiochip0",
		"cs":       -1, // line offset on gpiochip
		"cspin":    "", // periph pin name, used instead of cs when set
		"chain":    1,
		"variant":  "LTC6813",
		"reverse":  false,
		"mode":     "7k",
		"monitor":  false,
		"interval": "1s",
		"aux":      true,
		"status":   true,
		"openwire": 0,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
		{Short: 'n', Name: "chain"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("BMSCTL_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "bmsctl.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}

type settings struct {
	bus      string
	port     string
	freq     physic.Frequency
	gpiochip string
	cs       int
	cspin    string
	dev      ltc681x.Config
	monitor  bool
	mon      monitor.Config
}

func parseSettings(cfg *config.Config) (settings, error) {
	s := settings{
		bus:      cfg.MustGet("bus").String(),
		port:     cfg.MustGet("port").String(),
		gpiochip: cfg.MustGet("gpiochip").String(),
		cs:       cfg.MustGet("cs").Int(),
		cspin:    cfg.MustGet("cspin").String(),
		monitor:  cfg.MustGet("monitor").Bool(),
	}
	if err := s.freq.Set(cfg.MustGet("freq").String()); err != nil {
		return s, err
	}
	v, ok := ltc681x.ParseVariant(cfg.MustGet("variant").String())
	if !ok {
		return s, errBadSetting("variant")
	}
	md, ok := console.ParseMode(cfg.MustGet("mode").String())
	if !ok {
		return s, errBadSetting("mode")
	}
	s.dev = ltc681x.Config{
		ChainLength: cfg.MustGet("chain").Int(),
		Variant:     v,
		Reverse:     cfg.MustGet("reverse").Bool(),
	}
	s.mon = monitor.Config{
		Interval:      cfg.MustGet("interval").Duration(),
		Mode:          md,
		ReadAux:       cfg.MustGet("aux").Bool(),
		ReadStatus:    cfg.MustGet("status").Bool(),
		OpenWireEvery: cfg.MustGet("openwire").Int(),
	}
	return s, nil
}

type errBadSetting string

func (e errBadSetting) Error() string { return "bmsctl: bad setting " + string(e) }
