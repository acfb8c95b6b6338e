// Package classifiers registers the classifier backends with the core registry.
// Import this package to ensure all backends are registered.
package classifiers

// Each backend file uses init() to register itself.
