//go:build !windows

package cli

func defaultEditor() string { return "vi" }
