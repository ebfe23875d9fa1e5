// Package app wires the payment gateway core: a price oracle with a
// time-windowed cache, the conversion calculator, the settlement fee and
// dispatch pipeline, and the bounded in-memory stores behind them.
//
// Construction is explicit: callers build an Application with New, passing
// configuration and optional store overrides, and drive its lifecycle through
// Start and Stop. There are no package-level singletons; tests compose the
// same services directly with injected fetchers and seeded random sources.
package app
