package memory

import (
	"github.com/next-trace/scg-rideshare/adapters/inmemory"
	"github.com/next-trace/scg-rideshare/servicebus"
)

// Network is a shared in-memory transport that several service buses can join,
// standing in for a broker in tests and single-process runs.
type Network struct {
	Transport *inmemory.Adapter
	buses     []*servicebus.Bus
}

// New constructs an empty network and a cleanup function that closes every joined bus.
// The network records published envelopes so tests can inspect them.
func New() (*Network, func()) {
	n := &Network{Transport: inmemory.New(inmemory.WithRecording())}
	cleanup := func() {
		for _, b := range n.buses {
			_ = b.Close()
		}

		_ = n.Transport.Close()
	}

	return n, cleanup
}

// Join attaches a bus for service name.
func (n *Network) Join(name string, opts ...servicebus.Option) (*servicebus.Bus, error) {
	b, err := servicebus.New(name, n.Transport, opts...)
	if err != nil {
		return nil, err
	}

	n.buses = append(n.buses, b)

	return b, nil
}

// Settle waits for all in-flight deliveries, including the ones they trigger.
func (n *Network) Settle() { n.Transport.Wait() }
