// Package local provides an offline embedder that needs no model weights or network.
//
// Vectors are bags of hashed word tokens, so similarity reflects shared
// vocabulary rather than meaning. It suits air-gapped deployments, demos and
// tests that need similarity scores which track textual overlap.
package local
