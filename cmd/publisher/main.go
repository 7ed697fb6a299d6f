// Утилита для ручной проверки шины уведомлений: читает JSON заказа из
// stdin и публикует его в канал событий, как это делает API после
// сохранения заказа.
package main

import (
	"encoding/json"
	"log"
	"os"

	stan "github.com/nats-io/stan.go"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

func main() {
	clusterID := getenv("STAN_CLUSTER_ID", "somsa-cluster")
	clientID := getenv("STAN_PUB_ID", "somsa-publisher")
	natsURL := getenv("NATS_URL", "nats://localhost:4222")
	subject := getenv("STAN_SUBJECT", "orders.placed")

	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
	if err != nil {
		log.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	var o domain.Order
	dec := json.NewDecoder(os.Stdin)
	if err := dec.Decode(&o); err != nil {
		log.Fatalf("read order json from stdin: %v", err)
	}
	if err := o.Validate(); err != nil {
		log.Fatalf("invalid order: %v", err)
	}
	b, err := json.Marshal(o)
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	if err := sc.Publish(subject, b); err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published order %s (%d bytes) to %s", o.ID, len(b), subject)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
