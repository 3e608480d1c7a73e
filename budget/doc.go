// Package budget meters spend on external AI APIs against monthly caps.
//
// Calls follow a reserve/commit/release protocol: the estimated cost is
// held before the call, then reconciled with actual usage or returned on
// failure. Reservations count against the cap, so concurrent workers can
// never jointly overshoot it. Crossing 80% utilization fires an alert
// hook once per period; crossing 100% halts calls with ErrBudgetExceeded.
package budget
