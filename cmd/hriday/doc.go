// Command hriday is the CLI for driving facial-video capture sessions:
// recording or importing an artifact, confirming it for heart-rate
// processing, and inspecting results. Most commands talk to the hriday
// daemon over its local HTTP API.
package main
