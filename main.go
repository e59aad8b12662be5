package main

import (
	log "github.com/sirupsen/logrus"
	"wuyrush.io/chronos/server"
)

func main() {
	if err := server.Serve(); err != nil {
		log.WithError(err).Fatal("Error start up server and serve requests")
	}
}
