// Command runner ties the driver, an executor, and an example domain
// individual together into a runnable optimization, mirroring the role the
// teacher's deleted experiment_runner.go played for goNEAT xor/cartpole
// experiments.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/evocore/popforge/broker"
	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/driver"
	"github.com/evocore/popforge/evolog"
	"github.com/evocore/popforge/examples/parabola"
	"github.com/evocore/popforge/examples/sphere"
	"github.com/evocore/popforge/exec"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/evocore/popforge/rng"
	"github.com/evocore/popforge/trace"
)

func main() {
	optionsPath := flag.String("options", "", "path to a YAML or text options file")
	domain := flag.String("domain", "sphere", "sphere or parabola")
	dims := flag.Int("dims", 5, "parameter dimensionality")
	bound := flag.Float64("bound", 10, "box bound for initial sampling and clamping")
	sigma := flag.Float64("sigma", 0.5, "adaptation step size")
	executorKind := flag.String("executor", "serial", "serial, multithreaded, or brokered")
	brokerAddr := flag.String("broker-addr", ":7890", "TCP address for the brokered executor's wire server")
	seed := flag.Int64("seed", 1, "RNG seed")
	tracePath := flag.String("trace", "", "optional path to write a per-generation fitness NPZ trace")
	flag.Parse()

	opts := &config.Options{
		Size:                5,
		NParents:            2,
		MaxIterations:       200,
		RecombinationMethod: config.RecombinationRandom,
		SortingMethod:       config.SortingMuPlusLambda,
		WaitFactor:          3,
		Alpha:               1,
		LogLevel:            "info",
	}
	if *optionsPath != "" {
		loaded, err := config.ReadOptionsFromFile(*optionsPath)
		if err != nil {
			fatal(err)
		}
		opts = loaded
	}
	if err := opts.Validate(); err != nil {
		fatal(err)
	}
	if err := evolog.Init(opts.LogLevel); err != nil {
		fatal(err)
	}

	source := rng.NewDefault(4, 64, 16, *seed)
	defer source.Close()

	inds := make([]individual.Individual, opts.Size)
	direction := individual.Minimize
	for i := range inds {
		switch *domain {
		case "parabola":
			inds[i] = parabola.New(*bound, *sigma, source)
		default:
			inds[i] = sphere.New(*dims, *bound, *sigma, source)
		}
	}
	pop := population.New(inds, opts.NParents, opts.Size)

	executor, cleanup, err := buildExecutor(*executorKind, opts, *brokerAddr)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	recorder := trace.NewRecorder()
	d := driver.New(pop, executor, opts, source, direction)
	d.Monitor = driver.ObserverFunc(func(phase driver.Phase, view driver.View) {
		recorder.Observe(phase, view)
		best := view.Best()
		if best == nil {
			evolog.Info(fmt.Sprintf("generation %d [%s]: population empty", view.Generation, phase))
			return
		}
		evolog.Info(fmt.Sprintf("generation %d [%s]: best=%.6f", view.Generation, phase, best.Fitness(0, false, false)))
	})

	best, err := d.Optimize(context.Background())
	if err != nil {
		fatal(err)
	}
	fmt.Printf("terminated: cause=%s best=%.6f\n", d.Cause(), best)

	if *tracePath != "" {
		f, err := os.Create(*tracePath)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		if err := recorder.WriteNPZ(f); err != nil {
			fatal(err)
		}
	}
}

func buildExecutor(kind string, opts *config.Options, addr string) (exec.Executor, func(), error) {
	noop := func() {}
	switch kind {
	case "multithreaded":
		return exec.NewMultithreaded(opts.NThreads), noop, nil
	case "brokered":
		b := broker.New()
		srv := &broker.Server{Broker: b, Codec: broker.DefaultCodec{}, Serialization: broker.SerializationBinary}
		listener, err := srv.Listen(addr)
		if err != nil {
			return nil, noop, err
		}
		ex := exec.NewBrokered(b, opts.WaitFactor, 30*time.Second)
		return ex, func() {
			ex.Detach()
			listener.Close()
		}, nil
	default:
		return exec.NewSerial(), noop, nil
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
