package exec

import "github.com/pkg/errors"

// errorsAggregate reports the first captured task error along with how many
// tasks failed in total, mirroring spec.md §5's "thread pool errors are
// captured per task and drained at pool teardown" contract.
func errorsAggregate(count int, first error) error {
	if count <= 1 {
		return errors.Wrap(first, "exec: task failed")
	}
	return errors.Wrapf(first, "exec: %d tasks failed, first error", count)
}
