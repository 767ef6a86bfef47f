/*
Package ports defines the driven ports (interfaces) of the form engine.

These interfaces decouple the wizard from external implementations, allowing
drafts to live in memory, on disk, in Redis or in a SQL database, and letting
hosts decide where user-facing notifications go.

# Key Interfaces

  - SlotStore: string-keyed durable slots used by the draft store.
  - DistributedLocker: distributed locking for concurrent session access.
  - Notifier: fire-and-forget delivery of user-facing messages.
*/
package ports

//go:generate mockgen -source=store.go -destination=mocks/store.go -package=mocks SlotStore
//go:generate mockgen -source=notifier.go -destination=mocks/notifier.go -package=mocks Notifier
