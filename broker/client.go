package broker

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ClientConfig carries the retry policy a wire-protocol client obeys, per
// spec.md §6.3: ~200ms between connection attempts up to MaxConnectionAttempts
// (0 = unlimited), and ~500ms between ready-retries up to MaxStalls
// (0 = unlimited).
type ClientConfig struct {
	Addr                  string
	MaxConnectionAttempts int
	MaxStalls             int
	ConnectRetryInterval  time.Duration
	StallRetryInterval    time.Duration
	Serialization         SerializationMode
	Codec                 Codec
}

// DefaultClientConfig fills in the spec's suggested retry cadence.
func DefaultClientConfig(addr string) ClientConfig {
	return ClientConfig{
		Addr:                 addr,
		ConnectRetryInterval: 200 * time.Millisecond,
		StallRetryInterval:   500 * time.Millisecond,
		Serialization:        SerializationBinary,
		Codec:                DefaultCodec{},
	}
}

// Client is the worker-side counterpart to Server: a short-lived,
// connect-per-transaction implementation of the getSeed/ready/result
// exchange in spec.md §6.2.
type Client struct {
	cfg ClientConfig
}

// NewClient returns a Client bound to cfg.
func NewClient(cfg ClientConfig) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) dial() (net.Conn, error) {
	attempts := 0
	for {
		conn, err := net.Dial("tcp", c.cfg.Addr)
		if err == nil {
			return conn, nil
		}
		attempts++
		if c.cfg.MaxConnectionAttempts > 0 && attempts >= c.cfg.MaxConnectionAttempts {
			return nil, errors.Wrapf(err, "broker client: exhausted %d connection attempts", attempts)
		}
		time.Sleep(c.cfg.ConnectRetryInterval)
	}
}

// GetSeed performs a getSeed transaction and returns the server-issued seed.
func (c *Client) GetSeed() (uint32, error) {
	conn, err := c.dial()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if err := WriteField(conn, string(CmdGetSeed)); err != nil {
		return 0, errors.Wrap(err, "broker client: failed to send getSeed")
	}
	seedStr, err := ReadField(conn)
	if err != nil {
		return 0, errors.Wrap(err, "broker client: failed to read seed reply")
	}
	seed, err := strconv.ParseUint(strings.TrimSpace(seedStr), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "broker client: malformed seed reply %q", seedStr)
	}
	return uint32(seed), nil
}

// PollForWork repeatedly issues `ready` transactions, sleeping
// StallRetryInterval between failed attempts, until work is available or the
// stall budget is exhausted.
func (c *Client) PollForWork() (ComputeReply, error) {
	stalls := 0
	for {
		reply, ok, err := c.ready()
		if err != nil {
			return ComputeReply{}, err
		}
		if ok {
			return reply, nil
		}
		stalls++
		if c.cfg.MaxStalls > 0 && stalls >= c.cfg.MaxStalls {
			return ComputeReply{}, errors.Errorf("broker client: exhausted %d stall retries with no work available", stalls)
		}
		time.Sleep(c.cfg.StallRetryInterval)
	}
}

func (c *Client) ready() (ComputeReply, bool, error) {
	conn, err := c.dial()
	if err != nil {
		return ComputeReply{}, false, err
	}
	defer conn.Close()

	if err := WriteField(conn, string(CmdReady)); err != nil {
		return ComputeReply{}, false, errors.Wrap(err, "broker client: failed to send ready")
	}
	cmd, err := ReadField(conn)
	if err != nil {
		return ComputeReply{}, false, errors.Wrap(err, "broker client: failed to read ready reply command")
	}
	switch Command(cmd) {
	case CmdNoSuccess:
		return ComputeReply{}, false, nil
	case CmdCompute:
		reply, err := ReadComputeReply(conn)
		if err != nil {
			return ComputeReply{}, false, errors.Wrap(err, "broker client: failed to read compute reply")
		}
		return reply, true, nil
	default:
		return ComputeReply{}, false, errors.Errorf("broker client: unexpected ready reply command %q", cmd)
	}
}

// SendResult performs a result transaction, returning a completed work
// item's payload to the server for the given port.
func (c *Client) SendResult(portID PortID, payload []byte) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	return WriteResultMessage(conn, ResultMessage{PortID: portID, Payload: payload})
}
