package options

import (
	"regexp"
	"strings"
)

// nodeRuntime matches provider runtimes such as nodejs6.10, nodejs14.x or nodejs20.x.
var nodeRuntime = regexp.MustCompile(`^nodejs(\d+)(\.\d+|\.x)$`)

// NodeVersion returns the node target version for a provider runtime and
// whether the runtime can be optimized at all. An empty runtime targets the
// current node version.
func NodeVersion(runtime string) (string, bool) {
	if runtime == "" {
		return "current", true
	}
	if !nodeRuntime.MatchString(runtime) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(runtime, "nodejs"), ".x"), true
}
