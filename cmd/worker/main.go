// Command worker is a standalone wire-protocol client (spec.md §6, scenario
// S6): it connects to a running broker server, fetches a seed, repeatedly
// polls for compute work, evaluates a sphere individual against the
// received parameters, and returns the result. It never touches the
// in-process broker.Broker directly -- only the TCP protocol in package
// broker.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/evocore/popforge/broker"
	"github.com/evocore/popforge/evolog"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7890", "broker server address")
	serialization := flag.String("serialization", string(broker.SerializationBinary), "wire serialization mode: binary, text, xml")
	maxConnectionAttempts := flag.Int("max-connect-attempts", 0, "0 = unlimited")
	maxStalls := flag.Int("max-stalls", 0, "0 = unlimited")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	flag.Parse()

	if err := evolog.Init(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := broker.DefaultClientConfig(*addr)
	cfg.Serialization = broker.SerializationMode(*serialization)
	cfg.MaxConnectionAttempts = *maxConnectionAttempts
	cfg.MaxStalls = *maxStalls
	client := broker.NewClient(cfg)

	seed, err := client.GetSeed()
	if err != nil {
		evolog.Error(fmt.Sprintf("worker: failed to fetch seed: %v", err))
		os.Exit(1)
	}
	evolog.Info(fmt.Sprintf("worker: issued seed %d", seed))

	for {
		if err := runOnce(client); err != nil {
			evolog.Error(fmt.Sprintf("worker: %v", err))
			os.Exit(1)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func runOnce(client *broker.Client) error {
	reply, err := client.PollForWork()
	if err != nil {
		return err
	}

	var wire broker.WireIndividual
	codec := broker.DefaultCodec{}
	if err := codec.Decode(reply.Serialization, reply.Payload, &wire); err != nil {
		return err
	}

	total := 0.0
	for _, x := range wire.Params {
		total += x * x
	}
	wire.FitnessVector = []float64{total}
	wire.ProcessingSuccessful = true

	payload, err := codec.Encode(reply.Serialization, wire)
	if err != nil {
		return err
	}

	evolog.Debug(fmt.Sprintf("worker: computed fitness %.6f for port %d", total, reply.PortID))
	return client.SendResult(reply.PortID, payload)
}
