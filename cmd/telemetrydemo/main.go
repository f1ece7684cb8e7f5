// Command telemetrydemo is a debug/inspection harness for the telemetry
// core: it drives the public facade end to end (start, pause, resume,
// stop, inspect, serialize a measurement) from a terminal, the way a host
// app's integration test might, without any mobile platform underneath
// it.
package main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitOnError(err)
	}
}
