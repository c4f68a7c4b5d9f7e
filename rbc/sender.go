package rbc

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"trackconf-go/confidence"
)

const queueSize = 1000

type message struct {
	data []byte
	flag uint32
}

type udpTarget struct {
	addr *net.UDPAddr
	mask uint32
}

type tcpClient struct {
	addr  string
	mask  uint32
	queue chan *message
	wg    sync.WaitGroup
}

// Sender fans labelled fixes out to UDP and TCP consumers. A message goes to
// every target whose mask shares a bit with the message flag.
type Sender struct {
	mu         sync.RWMutex
	udpTargets []*udpTarget
	tcpClients []*tcpClient
	connUDP    *net.UDPConn
	header     []byte
	running    bool
}

func NewSender() *Sender {
	return &Sender{}
}

// SetHeader prefixes every message with "hdr:".
func (s *Sender) SetHeader(hdr string) {
	if hdr == "" {
		s.header = nil
	} else {
		s.header = []byte(hdr + ":")
	}
}

func (s *Sender) AddUDPSender(addr string, mask uint32) error {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	s.udpTargets = append(s.udpTargets, &udpTarget{addr: uaddr, mask: mask})
	return nil
}

func (s *Sender) AddTCPSender(addr string, mask uint32) {
	s.tcpClients = append(s.tcpClients, &tcpClient{
		addr:  addr,
		mask:  mask,
		queue: make(chan *message, queueSize),
	})
}

// Start opens the UDP socket and starts one writer per TCP target. Starting a
// running sender is a no-op.
func (s *Sender) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	s.connUDP = conn
	s.running = true
	for _, c := range s.tcpClients {
		// Stop closes the queues.
		c.queue = make(chan *message, queueSize)
		c.wg.Add(1)
		go c.loop()
	}
	return nil
}

// Stop drains the TCP queues and closes all connections.
func (s *Sender) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	if s.connUDP != nil {
		s.connUDP.Close()
	}
	for _, c := range s.tcpClients {
		close(c.queue)
	}
	s.mu.Unlock()
	for _, c := range s.tcpClients {
		c.wg.Wait()
	}
}

func (s *Sender) Send(data []byte, flag uint32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return
	}

	msgData := data
	if len(s.header) > 0 {
		msgData = make([]byte, len(s.header)+len(data))
		copy(msgData, s.header)
		copy(msgData[len(s.header):], data)
	}

	for _, t := range s.udpTargets {
		if t.mask&flag != 0 {
			if _, err := s.connUDP.WriteToUDP(msgData, t.addr); err != nil {
				slog.Debug("udp send failed", "addr", t.addr, "err", err)
			}
		}
	}

	msg := &message{data: msgData, flag: flag}
	for _, c := range s.tcpClients {
		if c.mask&flag != 0 {
			select {
			case c.queue <- msg:
			default:
				slog.Debug("tcp queue full, dropping", "addr", c.addr)
			}
		}
	}
}

// SendTrack forwards every fix of a scored track followed by its summary.
func (s *Sender) SendTrack(trackID string, points []confidence.Point, v confidence.Vector) {
	for i, p := range points {
		if i >= len(v) {
			break
		}
		s.Send(FormatFixConf(trackID, i+1, p, v[i]), FlagsFor(v[i]))
	}
	s.Send(FormatSummary(trackID, v), FlagSummary)
}

func (c *tcpClient) loop() {
	defer c.wg.Done()
	var conn net.Conn

	connect := func() bool {
		if conn != nil {
			return true
		}
		var err error
		conn, err = net.DialTimeout("tcp", c.addr, 2*time.Second)
		if err != nil {
			conn = nil
			return false
		}
		return true
	}

	for msg := range c.queue {
		if !connect() {
			time.Sleep(500 * time.Millisecond)
			if !connect() {
				continue
			}
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := conn.Write(msg.data); err != nil {
			slog.Warn("tcp write failed", "addr", c.addr, "err", err)
			conn.Close()
			conn = nil
			time.Sleep(100 * time.Millisecond)
		}
	}
	if conn != nil {
		conn.Close()
	}
}
