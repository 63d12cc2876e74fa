package events

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/crown-clash/internal/config"
	"github.com/fystack/crown-clash/pkg/common/logger"
)

// Connect dials NATS. Outside production it falls back to the default local
// URL without TLS.
func Connect(cfg config.NATSConfig, environment string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("crownclash"),
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(errHandler),
	}

	url := cfg.URL
	if environment != config.EnvProduction {
		if url == "" {
			url = nats.DefaultURL
		}
		return nats.Connect(url, opts...)
	}

	clientCert := cfg.TLS.ClientCert
	clientKey := cfg.TLS.ClientKey
	caCert := cfg.TLS.CACert
	if clientCert == "" {
		clientCert = filepath.Join(".", "certs", "client-cert.pem")
	}
	if clientKey == "" {
		clientKey = filepath.Join(".", "certs", "client-key.pem")
	}
	if caCert == "" {
		caCert = filepath.Join(".", "certs", "rootCA.pem")
	}
	opts = append(opts,
		nats.ClientCert(clientCert, clientKey),
		nats.RootCAs(caCert),
		nats.UserInfo(cfg.Username, cfg.Password),
	)
	return nats.Connect(url, opts...)
}

func errHandler(nc *nats.Conn, sub *nats.Subscription, natsErr error) {
	logger.Error("NATS error", "error", natsErr)
	if natsErr == nats.ErrSlowConsumer && sub != nil {
		pending, _, err := sub.Pending()
		if err != nil {
			logger.Error("Error getting pending messages", "error", err)
			return
		}
		logger.Error("Falling behind with pending messages on subject", "pending", pending, "subject", sub.Subject)
	}
}

// NATSPublisher publishes events on a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte, msgID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, msgID)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// Watch subscribes to every event under subject and hands each decoded
// envelope to fn. Data is left as raw JSON.
func Watch(conn *nats.Conn, subject string, fn func(subject string, ev Event, raw json.RawMessage)) (*nats.Subscription, error) {
	return conn.Subscribe(subject+".>", func(msg *nats.Msg) {
		var env struct {
			Event
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			logger.Warn("Skipping undecodable event", "subject", msg.Subject, "error", err)
			return
		}
		ev := env.Event
		ev.Data = env.Data
		fn(msg.Subject, ev, env.Data)
	})
}
