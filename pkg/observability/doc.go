/*
Package observability turns solver lifecycle events into logs and metrics.

Both helpers return domain.LifecycleHooks, so they compose with each other and
with caller hooks through domain.CombineHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	solver := artisan.New(artisan.WithLifecycleHooks(domain.CombineHooks(
		observability.LogHooks(logger),
		metrics.Hooks(),
	)))
*/
package observability
