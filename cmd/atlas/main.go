// Atlas is the generative-AI gateway behind the deck editor.
//
// It registers one or more model providers, load-balances requests across
// them, fails over when a provider errors and monitors provider health.
//
// Usage:
//
//	# Start the gateway (metrics, health probes, config hot reload)
//	atlas run --config /etc/atlas/config.yaml
//
//	# One completion through the provider manager
//	atlas complete --prompt "Write a title slide for Q3 results"
//
//	# Stream a completion to stdout
//	atlas stream --prompt "Outline a product launch deck"
//
//	# Estimate the cost of a request on every healthy provider
//	atlas estimate --prompt "Summarize this slide" --max-tokens 500
//
//	# Per-provider status and aggregate metrics
//	atlas status --check
//
//	# Validate a configuration file
//	atlas validate --config config.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
