package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"skidoodle/now-playing/internal/nowplaying"
)

// Poller runs the now-playing pipeline periodically while clients are
// connected and broadcasts the View whenever it changes.
type Poller struct {
	fetcher   nowplaying.Fetcher
	hub       *Hub
	interval  time.Duration
	lastState *nowplaying.View
	mu        sync.RWMutex
	kick      chan struct{}
	log       *logrus.Entry
}

// NewPoller creates a new Poller.
func NewPoller(fetcher nowplaying.Fetcher, hub *Hub, interval time.Duration, logger *logrus.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		hub:      hub,
		interval: interval,
		kick:     make(chan struct{}, 1),
		log:      logger.WithField("component", "poller"),
	}
}

// Run starts the polling loop. It must be run in a separate goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.log.WithField("interval", p.interval).Info("poller started")
	defer p.log.Info("poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.hub.ClientCount() == 0 {
				p.reset()
				continue
			}
			p.UpdateState(ctx)
		case <-p.kick:
			p.UpdateState(ctx)
		}
	}
}

// Kick asks the loop to poll now instead of waiting for the next tick.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// UpdateState fetches the latest View, compares it, and broadcasts if needed.
// Failures are logged and leave the last known state untouched.
func (p *Poller) UpdateState(ctx context.Context) {
	view, err := p.fetcher.NowPlaying(ctx)
	if err != nil {
		kind, upstreamStatus := nowplaying.Classify(err)
		p.log.WithFields(logrus.Fields{
			"kind":           kind,
			"upstreamStatus": upstreamStatus,
			"error":          err,
		}).Error("failed to get currently playing track")
		return
	}

	p.mu.Lock()
	hasChanged := p.lastState == nil || *p.lastState != view
	if hasChanged {
		p.lastState = &view
	}
	p.mu.Unlock()

	if !hasChanged {
		return
	}

	trackName := "Nothing"
	if view.Title != "" {
		trackName = view.Title
	}
	p.log.WithFields(logrus.Fields{
		"isPlaying": view.IsPlaying,
		"track":     trackName,
	}).Info("state changed, broadcasting update")

	payload, err := json.Marshal(view)
	if err != nil {
		p.log.WithError(err).Error("failed to encode state")
		return
	}
	p.hub.Broadcast(ctx, payload)
}

// LastPayload returns the encoded last known View, or nil if none is known.
func (p *Poller) LastPayload() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.lastState == nil {
		return nil
	}
	payload, err := json.Marshal(p.lastState)
	if err != nil {
		return nil
	}
	return payload
}

// reset forgets the last known state so the next client starts fresh.
func (p *Poller) reset() {
	p.mu.Lock()
	p.lastState = nil
	p.mu.Unlock()
}
