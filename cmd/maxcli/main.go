package main

import (
	"context"
	"flag"
	"log"

	"github.com/maxmix/maxmix.go/pkg/cli/sh"
	"github.com/maxmix/maxmix.go/pkg/harness"
	"github.com/maxmix/maxmix.go/pkg/message"
	"github.com/maxmix/maxmix.go/pkg/transport/dial"

	_ "github.com/maxmix/maxmix.go/pkg/cli/cmds/session"
)

//go-build: CGO_ENABLED=0

func init() {
	dial.SetupFlags()
	harness.SetupFlags()
}

func main() {
	flag.Parse()

	conf, err := harness.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	state, err := conf.NewState()
	if err != nil {
		log.Fatalln(err)
	}
	t, err := dial.NewConfig().Open(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	ch := message.New(t, state)
	defer ch.Close()
	sh.New(conf.NewDriver(state, ch)).Run(flag.Args()...)
}
