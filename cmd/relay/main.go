package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verbly/chat-relay/internal/relay"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting chat relay...")

	config := relay.NewConfigFromEnv()
	relay.SetConfig(config)

	hub := relay.NewHub(relay.NewRegistry())
	relay.StartHub(hub)

	mux := relay.SetupRoutes(hub)
	httpServer := relay.CreateServer(config.Port, mux)

	go func() {
		if err := relay.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := relay.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
	}
}
