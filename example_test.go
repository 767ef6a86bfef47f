package govform_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/pkg/domain"
	"github.com/aretw0/govform/pkg/wizard"
)

// ExampleNew walks the first step of an application with the in-memory store.
func ExampleNew() {
	svc, err := govform.New()
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	ctx := context.Background()
	form, err := svc.Open(ctx, "example")
	if err != nil {
		log.Fatal(err)
	}

	// An empty step does not advance.
	err = form.Advance(ctx)
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		fmt.Println(verr.Errors[domain.FieldEmail])
	}

	_ = form.UpdateFields(map[string]any{
		domain.FieldFullName:    "Jane Doe",
		domain.FieldEmail:       "jane@example.gov",
		domain.FieldPhone:       "(555) 123-4567",
		domain.FieldDateOfBirth: "1990-04-01",
	})
	if err := form.Advance(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println(form.Snapshot().CurrentStep)

	// Output:
	// Email is required
	// address
}
