// Package urls provides centralized constants for the documentation URLs
// shown in command output, so they can be updated in a single location.
//
// Usage:
//
//	import "github.com/muurk/klipmi/internal/urls"
//
//	fmt.Printf("For more information, see: %s\n", urls.MoonrakerZeroconf)
package urls
