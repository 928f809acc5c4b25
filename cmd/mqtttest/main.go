package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"

	"github.com/hubertat/poark/control"
	"github.com/hubertat/poark/mqtt"
	"github.com/hubertat/poark/pins"
)

const clientID = "poark-mqtttest"

var (
	broker = flag.String("broker", "mqtt://127.0.0.1:1883", "mqtt broker url")
	topic  = flag.String("topic", "pins", "readings topic of the board")
)

type Handler struct {
	topic string
}

func (h *Handler) MqttSubscribeTopic() string {
	return h.topic
}

func (h *Handler) MqttHandle(pub *paho.Publish) {
	for r := range pins.DecodeReadings(pub.Payload) {
		log.Info("pin reading", "topic", pub.Topic, "pin", r.Pin, "value", r.Value, "angle", control.AngleFromReading(r.Value))
	}
}

func main() {
	flag.Parse()
	log.SetLevel(log.DebugLevel)

	mc, err := mqtt.NewMqttClient(*broker, clientID)
	if err != nil {
		log.Error("failed to create mqtt client", "error", err)
		return
	}

	err = mc.Connect([]mqtt.MqttHandler{&Handler{topic: *topic}})
	if err != nil {
		log.Error("failed to connect to mqtt broker", "error", err)
		return
	}

	log.Info("mqtt client connected, waiting for readings", "topic", *topic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-ctx.Done()

	mc.Disconnect(context.Background())
}
