package broker

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/evocore/popforge/evolog"
	"github.com/evocore/popforge/individual"
	"github.com/pkg/errors"
)

// Server is the consumer-side TCP listener described in spec.md §6.2: it
// accepts one connection per client transaction (getSeed / ready / result)
// and bridges work items between the broker and remote worker processes.
// Per spec.md §7, a malformed connection is dropped without affecting
// broker state.
type Server struct {
	Broker        *Broker
	Codec         Codec
	Serialization SerializationMode
	// SeedSource produces a fresh seed for each getSeed request. Defaults to
	// a simple incrementing counter if nil.
	SeedSource func() uint32

	listener net.Listener
	seedCtr  uint32

	pendingMu sync.Mutex
	pending   map[PortID]map[int]WorkItem
}

// trackPending records item so a later result carrying the same port and
// index can be matched back to the in-process individual it must restore,
// per spec.md §4.4's port-id matchmaking contract.
func (s *Server) trackPending(item WorkItem) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending == nil {
		s.pending = make(map[PortID]map[int]WorkItem)
	}
	byIndex, ok := s.pending[item.PortID]
	if !ok {
		byIndex = make(map[int]WorkItem)
		s.pending[item.PortID] = byIndex
	}
	byIndex[item.Index] = item
}

// takePending removes and returns the pending item for (port, index), if any.
func (s *Server) takePending(port PortID, index int) (WorkItem, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	byIndex, ok := s.pending[port]
	if !ok {
		return WorkItem{}, false
	}
	item, ok := byIndex[index]
	if ok {
		delete(byIndex, index)
	}
	return item, ok
}

// Listen starts accepting connections on addr (e.g. ":7890") and serves them
// until the returned net.Listener is closed.
func (s *Server) Listen(addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "broker server: failed to listen")
	}
	s.listener = l
	go s.acceptLoop(l)
	return l, nil
}

func (s *Server) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return // listener closed
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	cmd, err := ReadField(conn)
	if err != nil {
		evolog.Warn(fmt.Sprintf("broker server: dropping connection, failed to read command: %v", err))
		return
	}

	switch Command(cmd) {
	case CmdGetSeed:
		s.handleGetSeed(conn)
	case CmdReady:
		s.handleReady(conn)
	case CmdResult:
		s.handleResult(conn)
	default:
		evolog.Warn(fmt.Sprintf("broker server: dropping connection, unknown command %q", cmd))
	}
}

func (s *Server) handleGetSeed(conn net.Conn) {
	var seed uint32
	if s.SeedSource != nil {
		seed = s.SeedSource()
	} else {
		s.seedCtr++
		seed = s.seedCtr
	}
	if err := WriteField(conn, fmt.Sprintf("%d", seed)); err != nil {
		evolog.Warn(fmt.Sprintf("broker server: failed to write seed: %v", err))
	}
}

func (s *Server) handleReady(conn net.Conn) {
	item, ok := s.Broker.TryPop()
	if !ok {
		if err := WriteField(conn, string(CmdNoSuccess)); err != nil {
			evolog.Warn(fmt.Sprintf("broker server: failed to write nosuccess: %v", err))
		}
		return
	}

	wire := WireIndividual{
		ProcessingSuccessful: item.Individual.ProcessingSuccessful(),
		Index:                item.Index,
	}
	if cp, ok := item.Individual.(individual.Checkpointable); ok {
		params, fitness, ok := cp.CheckpointState()
		wire.Params = params
		wire.FitnessVector = fitness
		wire.ProcessingSuccessful = ok
	}
	payload, err := s.Codec.Encode(s.Serialization, wire)
	if err != nil {
		evolog.Error(fmt.Sprintf("broker server: failed to encode work item: %v", err))
		// the item is lost to this dispatch; the repair path treats the
		// resulting shortfall as an ordinary lost/late item.
		return
	}
	s.trackPending(item)
	reply := ComputeReply{
		Size:          len(payload),
		Serialization: s.Serialization,
		PortID:        item.PortID,
		Payload:       payload,
	}
	if err := WriteComputeReply(conn, reply); err != nil {
		evolog.Warn(fmt.Sprintf("broker server: failed to write compute reply: %v", err))
	}
}

func (s *Server) handleResult(conn net.Conn) {
	msg, err := ReadResultMessage(conn)
	if err != nil {
		if err != io.EOF {
			evolog.Warn(fmt.Sprintf("broker server: dropping malformed result: %v", err))
		}
		return
	}
	var wire WireIndividual
	if err := s.Codec.Decode(s.Serialization, msg.Payload, &wire); err != nil {
		evolog.Warn(fmt.Sprintf("broker server: dropping result with bad payload: %v", err))
		return
	}
	item, ok := s.takePending(msg.PortID, wire.Index)
	if !ok {
		// no matching dispatch (port already returned, or a duplicate/late
		// echo of an index we already matched): discard silently per
		// spec.md §4.4's lifetime contract.
		return
	}
	if cp, ok := item.Individual.(individual.Checkpointable); ok {
		cp.RestoreCheckpoint(wire.Params, wire.FitnessVector, wire.ProcessingSuccessful)
	} else {
		item.Individual.SetProcessingSuccessful(wire.ProcessingSuccessful)
	}
	s.Broker.PushResult(msg.PortID, item)
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
