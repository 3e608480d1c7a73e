// Package deadletter isolates failed pipeline work so it never stalls a
// cycle.
//
// A stage failure is recorded with its chunk payload and retried on a
// schedule: first after five minutes, then after fifteen. An entry that
// fails both retries is parked for manual review and surfaces only
// through the operator CLI. A depth alert hook can flag a growing queue,
// which usually means a systemic failure rather than a poisoned chunk.
package deadletter
