package lighting

import (
	"fmt"
	"net"
	"sync"
)

// ArtNetSender sends DMX universes to a single Art-Net node over UDP.
type ArtNetSender struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	seq      uint8
	universe uint16
}

// DialArtNet connects to an Art-Net node at target ("host:port", usually
// port 6454) sending on the given universe.
func DialArtNet(target string, universe uint16) (*ArtNetSender, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("lighting: resolve %s: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("lighting: dial %s: %w", target, err)
	}
	return &ArtNetSender{conn: conn, seq: 1, universe: universe}, nil
}

// SendDMX frames and sends one full universe.
func (a *ArtNetSender) SendDMX(universe [UniverseSize]byte) error {
	a.mu.Lock()
	packet := buildArtDMX(a.seq, a.universe, universe[:])
	a.seq++
	if a.seq == 0 {
		a.seq = 1
	}
	a.mu.Unlock()

	if _, err := a.conn.Write(packet); err != nil {
		return fmt.Errorf("lighting: send artdmx: %w", err)
	}
	return nil
}

// Close releases the UDP socket.
func (a *ArtNetSender) Close() error {
	return a.conn.Close()
}

// buildArtDMX constructs an ArtDMX packet for the given universe and payload.
func buildArtDMX(seq uint8, universe uint16, payload []byte) []byte {
	packet := make([]byte, 18+len(payload))
	copy(packet[0:], "Art-Net\x00")
	packet[8], packet[9] = 0x00, 0x50 // OpCode ArtDMX
	packet[10], packet[11] = 0x00, 14 // Protocol version 14
	packet[12], packet[13] = seq, 0x00
	packet[14] = byte(universe & 0xff)        // SubUni
	packet[15] = byte((universe >> 8) & 0x7f) // Net
	packet[16] = byte((len(payload) >> 8) & 0xff)
	packet[17] = byte(len(payload) & 0xff)
	copy(packet[18:], payload)
	return packet
}
