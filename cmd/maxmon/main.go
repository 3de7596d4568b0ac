package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/maxmix/maxmix.go/pkg/msgs"
	"github.com/maxmix/maxmix.go/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/maxmix/"
)

func init() {
	if val := os.Getenv("MAXMIX_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, mqtt.SuffixMsg) && !strings.HasSuffix(topic, mqtt.SuffixCmd) {
			return
		}
		pkt, err := msgs.DecodePacket(payload)
		if err != nil {
			log.Printf("%s: bad packet: %v", topic, err)
			return
		}
		msg, err := pkt.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type=%s) %v", topic, pkt.Type, err)
			return
		}
		log.Printf("%s: [%s] %s", topic, pkt.Type, msg.String())
	}))
	<-(chan struct{})(nil)
}
