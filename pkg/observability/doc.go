/*
Package observability provides lifecycle hooks for monitoring the tally engine.

Metrics exposes Prometheus counters and histograms for evaluations, transforms
and mode toggles; LoggingHooks writes the same events to a structured logger.
Both plug into the engine through domain.LifecycleHooks and can be combined
with LifecycleHooks.Merge.
*/
package observability
