/*
Package govform implements a multi-step application form for a government
service request.

An applicant moves through four steps (personal information, address, service
details and supporting documents). Each step is validated before the form
advances, progress survives restarts through a draft store, uploads are
checked against a size and type policy, and the final submission goes through
an explicit confirmation gate before a confirmation number is issued.

# Architecture

The core lives in pkg/: validation rules, the document registry, the draft
store and the per-session state machine (pkg/wizard). Storage backends, the
HTTP API and the MCP server are adapters (pkg/adapters) behind small ports
(pkg/ports), so the same machine runs behind a CLI, a web client or an agent.

# Usage

Service assembles the pieces from functional options:

	svc, err := govform.New(
		govform.WithStore(file.New(".govform/drafts")),
		govform.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	form, err := svc.Open(ctx, "") // new session id
	_ = form.UpdateField(domain.FieldFullName, "Jane Doe")
	if err := form.Advance(ctx); err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			fmt.Println(verr.Errors)
		}
	}

Sessions are restored from their draft on first access, so reopening the same
id after a restart resumes on the saved step.
*/
package govform
