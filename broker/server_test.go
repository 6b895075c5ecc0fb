package broker_test

import (
	"context"
	"testing"
	"time"

	"github.com/evocore/popforge/broker"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*broker.Server, *broker.Broker, string) {
	t.Helper()
	b := broker.New()
	srv := &broker.Server{
		Broker:        b,
		Codec:         broker.DefaultCodec{},
		Serialization: broker.SerializationBinary,
	}
	l, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, b, l.Addr().String()
}

func TestClientGetSeed(t *testing.T) {
	_, _, addr := startTestServer(t)
	client := broker.NewClient(broker.DefaultClientConfig(addr))

	s1, err := client.GetSeed()
	require.NoError(t, err)
	s2, err := client.GetSeed()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestClientReadyNoSuccessWhenEmpty(t *testing.T) {
	_, _, addr := startTestServer(t)
	cfg := broker.DefaultClientConfig(addr)
	cfg.MaxStalls = 1
	client := broker.NewClient(cfg)

	_, err := client.PollForWork()
	assert.Error(t, err)
}

func TestClientReadyReceivesComputeWhenQueued(t *testing.T) {
	_, b, addr := startTestServer(t)

	source := rng.NewDefault(1, 4, 10, 11)
	defer source.Close()
	ind := sphere.New(2, 10, 0.1, source)

	port := b.GetPort()
	b.Push(port, broker.WorkItem{Individual: ind, PortID: port, Index: 5})

	cfg := broker.DefaultClientConfig(addr)
	cfg.MaxStalls = 2
	client := broker.NewClient(cfg)

	reply, err := client.PollForWork()
	require.NoError(t, err)
	assert.Equal(t, port, reply.PortID)
	assert.NotEmpty(t, reply.Payload)
}

func TestClientSendResultDeliversToPort(t *testing.T) {
	_, b, addr := startTestServer(t)
	client := broker.NewClient(broker.DefaultClientConfig(addr))

	source := rng.NewDefault(1, 4, 10, 13)
	defer source.Close()

	port := b.GetPort()
	b.Push(port, broker.WorkItem{Individual: sphere.New(2, 10, 0.1, source), PortID: port, Index: 0})

	// the server only accepts a result matching a dispatched item, so fetch
	// the work first and echo its payload back.
	reply, err := client.PollForWork()
	require.NoError(t, err)
	require.NoError(t, client.SendResult(reply.PortID, reply.Payload))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	item, ok := b.PopResult(ctx, port)
	require.True(t, ok)
	assert.Equal(t, port, item.PortID)
}

// TestFullTransactionRestoresFitnessOnOriginalIndividual exercises spec.md
// scenario S6 end-to-end: a ready/compute exchange hands the individual's
// params to a client, the client computes the sphere fitness and sends it
// back via result, and the server must restore that fitness onto the very
// individual.Individual it dispatched, not a disconnected stand-in.
func TestFullTransactionRestoresFitnessOnOriginalIndividual(t *testing.T) {
	_, b, addr := startTestServer(t)

	source := rng.NewDefault(1, 4, 10, 12)
	defer source.Close()
	ind := sphere.New(2, 10, 0.1, source)
	require.True(t, ind.Dirty())

	port := b.GetPort()
	b.Push(port, broker.WorkItem{Individual: ind, PortID: port, Index: 3})

	client := broker.NewClient(broker.DefaultClientConfig(addr))
	reply, err := client.PollForWork()
	require.NoError(t, err)

	codec := broker.DefaultCodec{}
	var wire broker.WireIndividual
	require.NoError(t, codec.Decode(reply.Serialization, reply.Payload, &wire))
	require.Len(t, wire.Params, 2)

	total := 0.0
	for _, x := range wire.Params {
		total += x * x
	}
	wire.FitnessVector = []float64{total}
	wire.ProcessingSuccessful = true

	payload, err := codec.Encode(reply.Serialization, wire)
	require.NoError(t, err)
	require.NoError(t, client.SendResult(reply.PortID, payload))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	item, ok := b.PopResult(ctx, port)
	require.True(t, ok)
	require.Same(t, ind, item.Individual)
	assert.False(t, ind.Dirty())
	assert.InDelta(t, total, ind.Fitness(0, false, false), 1e-9)
}
