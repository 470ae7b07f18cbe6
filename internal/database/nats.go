package database

import (
	"log"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
)

// InitNats connects to NATS. Event publishing is optional, so a missing URL
// or a failed connection returns nil.
func InitNats() *nats.Conn {
	url := viper.GetString("nats.url")
	if url == "" {
		log.Println("NATS URL not set, ledger events disabled")
		return nil
	}

	nc, err := nats.Connect(url, nats.Name("travelbooks-ledger"))
	if err != nil {
		log.Printf("NATS connection failed, continuing without events: %v", err)
		return nil
	}

	log.Println("NATS connection established")
	return nc
}
