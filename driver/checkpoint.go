package driver

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/evocore/popforge/broker"
	"github.com/evocore/popforge/config"
	"github.com/evocore/popforge/individual"
	"github.com/evocore/popforge/population"
	"github.com/pkg/errors"
)

// checkpointRecord is the on-disk representation of one checkpointed
// parent: just enough to reconstruct its observable state via LoadFrom,
// using the same generic WireIndividual shape the broker's wire protocol
// uses for remote workers (spec.md §9's resolved open question keeps this
// encoding independent of the wire protocol's own per-request mode).
type checkpointRecord struct {
	Individual broker.WireIndividual
}

// CheckpointFileName builds the `<iteration>_<primary_fitness>_<base>` name
// mandated by spec.md §4.6.
func CheckpointFileName(iteration int, primaryFitness float64, base string) string {
	return fmt.Sprintf("%d_%g_%s", iteration, primaryFitness, base)
}

// Checkpoint serializes the mu current parents (not the whole population)
// to w, per spec.md §4.6. All parents must be clean; returns a fatal
// error otherwise.
func Checkpoint(pop *population.Population, mode config.CheckpointSerialization, w io.Writer) error {
	if idx, dirty := pop.AnyDirty(pop.Mu); dirty {
		return errors.Errorf("driver: checkpoint failed, parent at index %d is dirty", idx)
	}

	records := make([]checkpointRecord, pop.Mu)
	for i, p := range pop.Parents() {
		wireInd, err := toWireIndividual(p)
		if err != nil {
			return err
		}
		records[i] = checkpointRecord{Individual: wireInd}
	}

	switch mode {
	case config.CheckpointBinary, "":
		return gob.NewEncoder(w).Encode(records)
	case config.CheckpointText:
		return json.NewEncoder(w).Encode(records)
	case config.CheckpointXML:
		return xml.NewEncoder(w).Encode(records)
	default:
		return errors.Errorf("driver: unsupported checkpoint serialization mode %q", mode)
	}
}

// CheckpointToFile is a convenience wrapper creating/truncating path.
func CheckpointToFile(pop *population.Population, mode config.CheckpointSerialization, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "driver: failed to create checkpoint file")
	}
	defer f.Close()
	return Checkpoint(pop, mode, f)
}

// LoadCheckpoint loads parents from r into pop in-place. Saved records beyond
// the population's current length are appended as clones restored from those
// records; if the population then holds fewer than pop.Mu individuals, its
// last individual is cloned until it holds pop.Mu, per spec.md §4.6.
func LoadCheckpoint(pop *population.Population, mode config.CheckpointSerialization, r io.Reader) error {
	var records []checkpointRecord
	var err error
	switch mode {
	case config.CheckpointBinary, "":
		err = gob.NewDecoder(r).Decode(&records)
	case config.CheckpointText:
		err = json.NewDecoder(r).Decode(&records)
	case config.CheckpointXML:
		err = xml.NewDecoder(r).Decode(&records)
	default:
		return errors.Errorf("driver: unsupported checkpoint serialization mode %q", mode)
	}
	if err != nil {
		return errors.Wrap(err, "driver: failed to decode checkpoint")
	}
	if len(records) == 0 {
		return errors.New("driver: checkpoint contains no parents")
	}

	// Load saved parents in-place into the existing slots.
	n := len(records)
	loaded := n
	if loaded > pop.Len() {
		loaded = pop.Len()
	}
	for i := 0; i < loaded; i++ {
		if err := fromWireIndividual(pop.Individuals[i], records[i].Individual); err != nil {
			return err
		}
	}

	// Saved records beyond the population's current length are appended:
	// each is a clone of the last loaded parent with the next saved record
	// restored into it.
	for i := loaded; i < n; i++ {
		clone := pop.Individuals[loaded-1].Clone()
		if err := fromWireIndividual(clone, records[i].Individual); err != nil {
			return err
		}
		pop.Individuals = append(pop.Individuals, clone)
	}
	for pop.Len() < pop.Mu {
		pop.Individuals = append(pop.Individuals, pop.Individuals[len(pop.Individuals)-1].Clone())
	}
	return nil
}

// LoadCheckpointFromFile is a convenience wrapper opening path.
func LoadCheckpointFromFile(pop *population.Population, mode config.CheckpointSerialization, path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "driver: failed to read checkpoint file")
	}
	return LoadCheckpoint(pop, mode, bytes.NewReader(data))
}

// toWireIndividual captures an individual's checkpoint-relevant state. If
// the individual implements individual.Checkpointable, its full parameter
// and fitness-vector state is captured; otherwise the processing outcome
// and the cached fitness vector (read without reevaluation) are captured, and
// no parameters.
func toWireIndividual(ind individual.Individual) (broker.WireIndividual, error) {
	w := broker.WireIndividual{ProcessingSuccessful: ind.ProcessingSuccessful()}
	if cp, ok := ind.(individual.Checkpointable); ok {
		params, fitness, ok := cp.CheckpointState()
		w.Params = params
		w.FitnessVector = fitness
		w.ProcessingSuccessful = ok
		return w, nil
	}
	n := ind.NumFitnessCriteria()
	w.FitnessVector = make([]float64, n)
	for i := 0; i < n; i++ {
		w.FitnessVector[i] = ind.Fitness(i, false, false)
	}
	return w, nil
}

// fromWireIndividual restores a checkpointed record into target. If target
// implements individual.Checkpointable, it is restored exactly and marked
// clean; otherwise only processing_successful is restored, and the
// individual's parameters, cached fitness and dirty flag are left as they
// were.
func fromWireIndividual(target individual.Individual, w broker.WireIndividual) error {
	if cp, ok := target.(individual.Checkpointable); ok {
		cp.RestoreCheckpoint(w.Params, w.FitnessVector, w.ProcessingSuccessful)
		return nil
	}
	target.SetProcessingSuccessful(w.ProcessingSuccessful)
	return nil
}
