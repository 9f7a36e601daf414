// Package ciutil detects continuous-integration environments and provides
// helpers for reading environment variables safely in logs.
package ciutil
