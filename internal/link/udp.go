package link

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/pkg/log"
)

// DefaultQueueDepth mirrors the small transmit queue of the radio driver.
const DefaultQueueDepth = 4

type outgoing struct {
	dst  protocol.MAC
	data []byte
}

// UDPRadio emulates the peer-to-peer radio on a host network. Each datagram is the
// sender's 6-byte address followed by the frame. Peers are mapped to UDP addresses.
type UDPRadio struct {
	conn *net.UDPConn
	self protocol.MAC
	mtu  int
	log  log.Logger

	mu     sync.RWMutex
	peers  map[protocol.MAC]*net.UDPAddr
	onSent SendCallback
	onRecv ReceiveCallback

	queue     chan outgoing
	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// ListenUDP opens a radio bound to laddr. An empty laddr picks an ephemeral port.
func ListenUDP(laddr string, self protocol.MAC, l log.Logger) (*UDPRadio, error) {
	var addr *net.UDPAddr
	if laddr != "" {
		var err error
		if addr, err = net.ResolveUDPAddr("udp", laddr); err != nil {
			return nil, fmt.Errorf("resolve %q: %w", laddr, err)
		}
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", laddr, err)
	}

	r := &UDPRadio{
		conn:   conn,
		self:   self,
		mtu:    protocol.MTU,
		log:    log.OrStd(l).WithName("udp-radio"),
		peers:  make(map[protocol.MAC]*net.UDPAddr),
		queue:  make(chan outgoing, DefaultQueueDepth),
		closed: make(chan struct{}),
	}

	r.wg.Add(2)
	go r.transmitLoop()
	go r.receiveLoop()

	return r, nil
}

// AddPeer maps a link address to a UDP endpoint. The broadcast address may be mapped too.
func (r *UDPRadio) AddPeer(mac protocol.MAC, addr string) error {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve peer %s at %q: %w", mac, addr, err)
	}
	r.mu.Lock()
	r.peers[mac] = ua
	r.mu.Unlock()
	return nil
}

// Addr returns the bound local address.
func (r *UDPRadio) Addr() net.Addr {
	return r.conn.LocalAddr()
}

func (r *UDPRadio) LocalMAC() protocol.MAC { return r.self }

func (r *UDPRadio) OnSent(cb SendCallback) {
	r.mu.Lock()
	r.onSent = cb
	r.mu.Unlock()
}

func (r *UDPRadio) OnReceive(cb ReceiveCallback) {
	r.mu.Lock()
	r.onRecv = cb
	r.mu.Unlock()
}

func (r *UDPRadio) Send(dst protocol.MAC, data []byte) error {
	if len(data) > r.mtu {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), r.mtu)
	}
	if _, ok := r.resolve(dst); !ok {
		return fmt.Errorf("unknown peer %s", dst)
	}

	select {
	case <-r.closed:
		return ErrClosed
	default:
	}

	select {
	case r.queue <- outgoing{dst: dst, data: append([]byte(nil), data...)}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *UDPRadio) resolve(dst protocol.MAC) (*net.UDPAddr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.peers[dst]; ok {
		return a, true
	}
	a, ok := r.peers[protocol.Broadcast]
	return a, ok
}

func (r *UDPRadio) transmitLoop() {
	defer r.wg.Done()

	buf := make([]byte, 0, len(r.self)+r.mtu)
	for {
		select {
		case <-r.closed:
			return
		case out := <-r.queue:
			addr, _ := r.resolve(out.dst)

			buf = append(buf[:0], r.self[:]...)
			buf = append(buf, out.data...)
			_, err := r.conn.WriteToUDP(buf, addr)
			if err != nil {
				r.log.Error(err, "Datagram write failed", "dst", out.dst)
			}

			r.mu.RLock()
			cb := r.onSent
			r.mu.RUnlock()
			if cb != nil {
				cb(out.dst, err == nil)
			}
		}
	}
}

func (r *UDPRadio) receiveLoop() {
	defer r.wg.Done()

	buf := make([]byte, 2048)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.Error(err, "Datagram read failed")
			continue
		}
		if n <= len(r.self) || n > len(r.self)+r.mtu {
			r.log.Warn("Dropping malformed datagram", "from", from.String(), "size", n)
			continue
		}

		var src protocol.MAC
		copy(src[:], buf[:len(src)])
		data := append([]byte(nil), buf[len(src):n]...)

		r.mu.RLock()
		cb := r.onRecv
		r.mu.RUnlock()
		if cb != nil {
			cb(src, data)
		}
	}
}

func (r *UDPRadio) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.conn.Close()
		r.wg.Wait()
	})
	return err
}
