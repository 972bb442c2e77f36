// Package peer maintains the peer related information such as the set
// of known peers and their addresses.
package peer

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// New contructs a new info value.
func New(name string, host string, port int) Peer {
	return Peer{
		Name: name,
		Host: host,
		Port: port,
	}
}

// Parse constructs a peer from the "name@host:port" notation used in
// configuration. The name is optional and defaults to the address.
func Parse(s string) (Peer, error) {
	name, addr, found := strings.Cut(s, "@")
	if !found {
		addr = name
		name = ""
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Peer{}, fmt.Errorf("parsing peer %q: %w", s, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Peer{}, fmt.Errorf("parsing peer %q: invalid port", s)
	}

	if host == "" {
		return Peer{}, errors.New("parsing peer: host is required")
	}

	if name == "" {
		name = addr
	}

	return New(name, host, port), nil
}

// Addr returns the dialable address for the peer.
func (p Peer) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Match validates if the specified address matches this node.
func (p Peer) Match(addr string) bool {
	return p.Addr() == addr
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return fmt.Sprintf("%s@%s", p.Name, p.Addr())
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
// Peers are kept in the order they were added and are unique by address.
type PeerSet struct {
	mu    sync.RWMutex
	peers []Peer
	set   map[string]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet(peers ...Peer) *PeerSet {
	ps := PeerSet{
		set: make(map[string]struct{}),
	}

	for _, peer := range peers {
		ps.Add(peer)
	}

	return &ps
}

// Add adds a new node to the set. It returns false if a peer with the same
// address is already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	addr := peer.Addr()
	if _, exists := ps.set[addr]; exists {
		return false
	}

	ps.set[addr] = struct{}{}
	ps.peers = append(ps.peers, peer)

	return true
}

// Copy returns a list of the known peers, excluding the peer at the
// specified address.
func (ps *PeerSet) Copy(addr string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.peers))
	for _, peer := range ps.peers {
		if !peer.Match(addr) {
			peers = append(peers, peer)
		}
	}

	return peers
}

// First returns the earliest registered peer that is not at the specified
// address.
func (ps *PeerSet) First(addr string) (Peer, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, peer := range ps.peers {
		if !peer.Match(addr) {
			return peer, true
		}
	}

	return Peer{}, false
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.peers)
}
