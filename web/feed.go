package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	goutils "go.viam.com/utils"

	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/services/navigation"
)

const (
	feedBuffer   = 64
	writeTimeout = 5 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Feed is an EventSink that streams route events to websocket clients. A client joining mid-route
// first receives the events of that route so far.
type Feed struct {
	mu          sync.Mutex
	backlog     []navigation.Event
	subscribers map[chan navigation.Event]struct{}
	logger      logging.Logger
}

// NewFeed returns a feed with no clients.
func NewFeed(logger logging.Logger) *Feed {
	return &Feed{subscribers: map[chan navigation.Event]struct{}{}, logger: logger}
}

// Emit sends ev to every client. A client too slow to keep up is dropped.
func (f *Feed) Emit(ev navigation.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Order() == 1 {
		f.backlog = nil
	}
	f.backlog = append(f.backlog, ev)
	for ch := range f.subscribers {
		select {
		case ch <- ev:
		default:
			f.logger.Warn("transit feed client fell behind; dropping it")
			delete(f.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers is the number of connected clients.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

func (f *Feed) subscribe() (chan navigation.Event, []navigation.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan navigation.Event, feedBuffer)
	f.subscribers[ch] = struct{}{}
	return ch, append([]navigation.Event(nil), f.backlog...)
}

func (f *Feed) unsubscribe(ch chan navigation.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; ok {
		delete(f.subscribers, ch)
		close(ch)
	}
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Debugw("upgrade failed", "error", err)
		return
	}
	defer goutils.UncheckedErrorFunc(conn.Close)
	f.logger.Infow("transit feed client connected", "remote", conn.RemoteAddr().String())

	ch, backlog := f.subscribe()
	defer f.unsubscribe(ch)

	// The client never sends anything we need; reading only notices it leaving.
	gone := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	send := func(ev navigation.Event) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return false
		}
		if err := conn.WriteJSON(ev); err != nil {
			f.logger.Debugw("transit feed write failed", "error", err)
			return false
		}
		return true
	}
	for _, ev := range backlog {
		if !send(ev) {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			f.logger.Infow("transit feed client disconnected", "remote", conn.RemoteAddr().String())
			return
		case ev, ok := <-ch:
			if !ok || !send(ev) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
