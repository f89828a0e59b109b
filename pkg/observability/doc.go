/*
Package observability turns engine lifecycle hooks into structured logs and
Prometheus metrics.

Both are plain domain.LifecycleHooks values, so they can be combined with each
other and with application hooks through ironlog.WithLifecycleHooks.
*/
package observability
