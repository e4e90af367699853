package transport

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/camlink/internal/pkg/metrics"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

// State is the reassembly state of one sender.
type State int

const (
	StateIdle State = iota
	StateReceiving
)

func (s State) String() string {
	if s == StateReceiving {
		return "receiving"
	}
	return "idle"
}

type session struct {
	state     State
	buf       []byte
	header    protocol.Header
	lastFrame time.Time
}

func (s *session) reset() {
	s.state = StateIdle
	s.buf = nil
	s.header = protocol.Header{}
}

// HeaderHook observes every header, including placeholders that carry no image.
type HeaderHook func(src protocol.MAC, h protocol.Header)

// SessionTable reassembles transfers per sender. One lock guards the whole table.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[protocol.MAC]*session

	queue      *Queue
	classifier protocol.Classifier
	maxSize    int
	onHeader   HeaderHook
	clock      clock.PassiveClock
	log        log.Logger
}

type SessionOption func(*SessionTable)

// WithMaxImageSize bounds each session buffer.
func WithMaxImageSize(n int) SessionOption {
	return func(t *SessionTable) { t.maxSize = n }
}

// WithTerminators sets the terminator sequences recognised on raw radio frames.
func WithTerminators(terms ...string) SessionOption {
	return func(t *SessionTable) { t.classifier = protocol.NewClassifier(terms...) }
}

func WithHeaderHook(h HeaderHook) SessionOption {
	return func(t *SessionTable) { t.onHeader = h }
}

func WithSessionClock(c clock.PassiveClock) SessionOption {
	return func(t *SessionTable) { t.clock = c }
}

func WithSessionLogger(l log.Logger) SessionOption {
	return func(t *SessionTable) { t.log = l }
}

// NewSessionTable delivers finished images into q.
func NewSessionTable(q *Queue, opts ...SessionOption) *SessionTable {
	t := &SessionTable{
		sessions:   make(map[protocol.MAC]*session),
		queue:      q,
		classifier: protocol.NewClassifier(),
		maxSize:    protocol.MaxImageSize,
		clock:      clock.RealClock{},
	}
	for _, o := range opts {
		o(t)
	}
	t.log = log.OrStd(t.log).WithName("session")
	return t
}

// HandleFrame classifies a raw radio frame by content and applies it.
func (t *SessionTable) HandleFrame(src protocol.MAC, data []byte) {
	t.Handle(src, t.classifier.Classify(data), data)
}

// Handle applies one frame of a known kind from src.
func (t *SessionTable) Handle(src protocol.MAC, kind protocol.Kind, data []byte) {
	metrics.FramesReceived.WithLabelValues(kind.String()).Inc()

	var (
		img    *Image
		header *protocol.Header
	)

	t.mu.Lock()
	s, ok := t.sessions[src]
	if !ok {
		s = &session{}
		t.sessions[src] = s
	}
	s.lastFrame = t.clock.Now()

	switch kind {
	case protocol.KindHash:
		h := t.onHash(src, s, data)
		header = &h
	case protocol.KindData:
		t.onData(src, s, data)
	case protocol.KindEOF:
		img = t.onEOF(src, s)
	default:
		t.log.Warn("Ignoring frame of unknown kind", "src", src, "kind", kind)
	}
	t.mu.Unlock()

	if header != nil && t.onHeader != nil {
		t.onHeader(src, *header)
	}
	if img != nil {
		t.deliver(img)
	}
}

func (t *SessionTable) onHash(src protocol.MAC, s *session, data []byte) protocol.Header {
	h, err := protocol.ParseHeader(data)
	if err != nil {
		t.log.Warn("Malformed header, expecting a mismatch at terminator", "src", src, "reason", err.Error())
	}

	if s.state == StateReceiving && len(s.buf) > 0 {
		t.log.Warn("Header during transfer, peer restarted; discarding partial image", "src", src, "discarded", len(s.buf))
		metrics.ImagesDiscarded.WithLabelValues("restart").Inc()
	}

	s.reset()
	s.state = StateReceiving
	s.header = h
	t.log.Debug("Transfer started", "src", src, "hash", h.Hash, "voltage", h.Voltage, "timestamp", h.Timestamp)
	return h
}

func (t *SessionTable) onData(src protocol.MAC, s *session, data []byte) {
	if s.state != StateReceiving {
		t.log.Warn("Data frame outside a transfer, dropping", "src", src, "size", len(data))
		metrics.FramesDropped.WithLabelValues("out_of_session").Inc()
		return
	}

	if len(s.buf)+len(data) > t.maxSize {
		t.log.Error(nil, "Image exceeds buffer bound, discarding transfer", "src", src, "buffered", len(s.buf), "frame", len(data), "limit", t.maxSize)
		metrics.ImagesDiscarded.WithLabelValues("overflow").Inc()
		s.reset()
		return
	}

	s.buf = append(s.buf, data...)
}

func (t *SessionTable) onEOF(src protocol.MAC, s *session) *Image {
	if s.state != StateReceiving || len(s.buf) == 0 {
		t.log.Info("Terminator without image data", "src", src, "state", s.state, "placeholder", s.header.IsPlaceholder())
		s.reset()
		return nil
	}

	img := &Image{
		Source:     src,
		Data:       s.buf,
		Header:     s.header,
		ReceivedAt: t.clock.Now(),
	}
	img.Hash, _ = protocol.Hash(img.Data)
	img.HashOK = protocol.Verify(img.Data, s.header.Hash) == nil

	if img.HashOK {
		t.log.Info("Image reassembled", "src", src, "size", len(img.Data), "hash", img.Hash)
	} else {
		t.log.Warn("Image hash mismatch, forwarding anyway", "src", src, "size", len(img.Data), "expected", s.header.Hash, "actual", img.Hash)
		metrics.HashMismatches.Inc()
	}

	s.reset()
	return img
}

func (t *SessionTable) deliver(img *Image) {
	if !t.queue.TryPut(img) {
		t.log.Error(nil, "Image queue full, dropping image", "src", img.Source, "size", len(img.Data), "capacity", t.queue.Cap())
		metrics.ImagesDiscarded.WithLabelValues("queue_full").Inc()
		return
	}
	metrics.ImagesCompleted.WithLabelValues(hashLabel(img.HashOK)).Inc()
}

func hashLabel(ok bool) string {
	if ok {
		return "match"
	}
	return "mismatch"
}

// Expire discards transfers whose last frame is older than maxAge and returns how many were dropped.
func (t *SessionTable) Expire(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	now := t.clock.Now()
	for src, s := range t.sessions {
		if s.state == StateReceiving && now.Sub(s.lastFrame) > maxAge {
			t.log.Warn("Transfer timed out, discarding partial image", "src", src, "buffered", len(s.buf), "idle", now.Sub(s.lastFrame))
			metrics.ImagesDiscarded.WithLabelValues("timeout").Inc()
			s.reset()
			n++
		}
	}
	return n
}

// SessionInfo is a point-in-time view of one sender, for diagnostics.
type SessionInfo struct {
	Source   protocol.MAC
	State    State
	Buffered int
	Hash     string
}

// Lookup returns the session of src, if one exists.
func (t *SessionTable) Lookup(src protocol.MAC) (SessionInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[src]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{Source: src, State: s.state, Buffered: len(s.buf), Hash: s.header.Hash}, true
}

// Len returns the number of senders seen.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
