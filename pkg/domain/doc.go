/*
Package domain contains the core domain models of the govform application wizard.

It defines the form aggregate, the documents attached to it, the step sequence and
the events the wizard emits. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - FormData: The single aggregate collected by the wizard (one per session).
  - Document: Metadata of an uploaded file plus its transient handles.
  - Step: One of the four sequential pages (Personal, Address, Service, Documents).
  - Snapshot: An immutable copy of a session used by hosts and persistence.
  - Notification: A transient user-facing message (upload accepted, progress saved).
*/
package domain
