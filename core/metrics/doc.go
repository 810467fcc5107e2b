// Package metrics defines the sinks that export simulation activity.
//
// A MetricsSink records delivery transitions. Cart states, command
// rejections, tick samples and equipment status changes are covered by
// optional recorder interfaces that callers discover with a type assertion.
// NewMetricsSink builds sinks from configuration and fans several of them
// out through a MultiSink.
package metrics
