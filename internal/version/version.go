// Package version holds the release version stamped into binaries and requests.
package version

// Current is the release version, without a leading "v".
const Current = "0.4.0"

// UserAgent identifies the extractor to the Eventbrite API.
func UserAgent() string {
	return "eventbrite-extractor/" + Current
}
