package wizard

import (
	"fmt"
	"strings"

	"github.com/aretw0/govform/pkg/domain"
)

// ValidationError is returned when a step does not validate.
// The same errors are stored on the machine.
type ValidationError struct {
	Step   domain.Step
	Errors domain.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s is incomplete: %s", e.Step, strings.Join(e.Errors.Fields(), ", "))
}
