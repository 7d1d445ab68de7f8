// Package users implements a token-mediated account lifecycle: registration
// with email activation, password login with stateless session proofs,
// password set/change/reset, and soft deletion.
//
// Identity model:
//   - A User is a permanent, activated account. A TmpUser is an unverified
//     registration that only lives until activation. A Token is a single
//     use, 24h-boxed credential bound to exactly one of the two, tagged by
//     IdentityRef so a token can never point at both.
//   - TokenManager is the only component that creates, validates, or
//     deletes tokens. Issuing purges every previous token for the identity,
//     so at most one live token exists per account at any time.
//
// Persistence:
//   - Store abstracts the two interchangeable backends that ship with the
//     module: store/bunstore (relational, Bun) and store/mongostore
//     (document, the official mongo driver). The managers never cache
//     records across calls.
//
// Lifecycle sinks:
//   - LifecycleSink is a light-weight publish interface the managers emit
//     register, activate, login, logout, password, and delete events
//     through. Sinks run best-effort so subscribers can forward to a queue
//     without blocking the operation.
package users
