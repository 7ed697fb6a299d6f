package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/BekhruzCo/soma-selecto/internal/domain"
)

// Publisher отправляет принятые заказы в канал событий. Соединение
// устанавливается лениво при первой публикации и переиспользуется;
// после обрыва следующая публикация переподключается.
type Publisher struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string

	mu sync.Mutex
	sc stan.Conn
}

func (p *Publisher) conn() (stan.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sc != nil {
		return p.sc, nil
	}
	clientID := p.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("somsa-api-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(p.ClusterID, clientID, stan.NatsURL(p.URL),
		stan.SetConnectionLostHandler(func(_ stan.Conn, _ error) {
			p.mu.Lock()
			p.sc = nil
			p.mu.Unlock()
		}))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	p.sc = sc
	return sc, nil
}

func (p *Publisher) Publish(ctx context.Context, o domain.Order) error {
	sc, err := p.conn()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	if err := sc.Publish(p.Subject, raw); err != nil {
		return fmt.Errorf("publish order %s: %w", o.ID, err)
	}
	return nil
}

// Close закрывает соединение, если оно было установлено.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sc != nil {
		p.sc.Close()
		p.sc = nil
	}
}

var _ domain.OrderPublisher = (*Publisher)(nil)
