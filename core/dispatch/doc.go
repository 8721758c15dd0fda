// Package dispatch assigns service tickets to field executors. It contains
// the O(M) basic dispatcher, the batch optimizer with its four interchangeable
// search algorithms, and the manager facade that orchestrates resilience,
// scoring and side effects.
package dispatch
