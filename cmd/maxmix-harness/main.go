package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	fx "github.com/maxmix/maxmix.go/pkg/framework"
	"github.com/maxmix/maxmix.go/pkg/harness"
	"github.com/maxmix/maxmix.go/pkg/message"
	"github.com/maxmix/maxmix.go/pkg/transport/dial"
)

func init() {
	dial.SetupFlags()
	harness.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := harness.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	state, err := conf.NewState()
	if err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	dialConf := dial.NewConfig()
	t, err := dialConf.Open(runner.Context)
	if err != nil {
		log.Fatalf("open %s: %v", dialConf.URL, err)
	}
	ch := message.New(t, state)
	defer ch.Close()

	glog.Infof("transport %s", dialConf.URL)
	err = fx.Flatten(runner.Go(fx.NamedRun("harness", conf.NewDriver(state, ch))).Wait())
	if err != nil && err != message.ErrClosed {
		glog.Errorf("harness: %v", err)
	}
	stats := ch.Stats()
	glog.Infof("received=%d applied=%d dropped=%d sent=%d failed=%d",
		stats.Received, stats.Applied, stats.Dropped, stats.Sent, stats.Failed)
}
