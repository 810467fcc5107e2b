// Package infra holds the adapters of the simulator: the zerolog logger,
// Prometheus and InfluxDB sinks, the Paho MQTT client, the telemetry bridge
// and Sentry reporting. They depend on the interfaces declared under core.
package infra
