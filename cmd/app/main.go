package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/hubertat/poark"
)

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file (json or yaml)")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	flagLogLevel = flag.String("log-level", "", "log level (debug, info, warn, error), overrides config")

	poarkService = servicemaker.ServiceMaker{
		User:               "poark",
		UserGroups:         []string{"dialout"},
		ServicePath:        "/etc/systemd/system/poark.service",
		ServiceDescription: "Poark client service: drives a Poark I/O board over MQTT. github.com/hubertat/poark",
		ExecDir:            "/srv/poark",
		ExecName:           "poark",
	}
)

func setLogLevel(level string) {
	if len(level) == 0 {
		return
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, keeping default", "level", level)
		return
	}
	log.SetLevel(lvl)
}

func main() {
	flag.Parse()
	log.Info("poark started", "version", Version, "build", Build)

	if *flagInstall {
		err := poarkService.InstallService()
		if err != nil {
			panic(err)
		} else {
			log.Info("service installed!")
			return
		}
	}

	pk, err := poark.LoadConfig(*config)
	if err != nil {
		log.Fatal("can't load config, will terminate", "config", *config, "err", err)
	}
	setLogLevel(pk.LogLevel)
	setLogLevel(*flagLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("will init poark drivers...")
	err = pk.InitDrivers(ctx)
	defer pk.Close()
	if err != nil {
		log.Fatal("failed to init drivers", "err", err)
	}

	log.Info("will connect to mqtt broker...", "broker", pk.MqttBroker, "client", pk.ClientId)
	err = pk.InitMqtt()
	if err != nil {
		log.Fatal("failed to init mqtt", "err", err)
	}

	reason, err := pk.Run(ctx)
	if err != nil {
		log.Fatal("loop failed", "err", err)
	}
	log.Info("loop stopped", "reason", reason)

	pk.PrintPinStatus(os.Stdout)
}
