package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	listenerMinReconnect = 1 * time.Second
	listenerMaxReconnect = 30 * time.Second
	listenerPingInterval = 90 * time.Second
)

// CallCommittedFunc receives the filename of a call committed by any writer.
type CallCommittedFunc func(filename string)

// notificationSource is the part of pq.Listener the loop needs.
type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener forwards call-committed notifications from a LISTEN channel.
type Listener struct {
	src     notificationSource
	channel string
	notify  CallCommittedFunc
}

// NewListener subscribes to channel on a dedicated connection.
func NewListener(dsn, channel string, notify CallCommittedFunc) (*Listener, error) {
	l := pq.NewListener(dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("[Postgres] Listener connection event", "event", ev, "error", err)
		}
	})
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on %q: %w", channel, err)
	}

	slog.Info("[Postgres] Listening for committed calls", "channel", channel)
	return &Listener{src: l, channel: channel, notify: notify}, nil
}

// Run forwards notifications until ctx is cancelled, then closes the connection.
func (l *Listener) Run(ctx context.Context) error {
	defer func() {
		if err := l.src.Close(); err != nil {
			slog.Warn("[Postgres] Listener close failed", "error", err)
		}
	}()

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[Postgres] Listener stopped", "channel", l.channel)
			return nil
		case n, ok := <-l.src.NotificationChannel():
			if !ok {
				return fmt.Errorf("listener channel %q closed", l.channel)
			}
			// nil after a reconnect; notifications may have been missed and
			// pending calls fall back to their retry schedule.
			if n == nil {
				slog.Info("[Postgres] Listener reconnected", "channel", l.channel)
				continue
			}
			l.notify(n.Extra)
		case <-ticker.C:
			if err := l.src.Ping(); err != nil {
				slog.Warn("[Postgres] Listener ping failed", "error", err)
			}
		}
	}
}
