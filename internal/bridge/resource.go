package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultResourceName = "NFTconnect"
	DefaultBaseURL      = "https://%s"
)

var resourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`fxasset-([^/]+)`),
	regexp.MustCompile(`cfx-nui-([^/]+)`),
}

// ResolveResourceName extracts the hosting resource from the panel's address.
func ResolveResourceName(href string) string {
	for _, re := range resourcePatterns {
		if m := re.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return DefaultResourceName
}

// Endpoint builds the callback URL for op. base is a format string taking the
// resource name, e.g. "https://%s" or "http://127.0.0.1:8090/%s".
func Endpoint(base, resource, op string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	root := base
	if strings.Contains(base, "%s") {
		root = fmt.Sprintf(base, resource)
	}
	return strings.TrimRight(root, "/") + "/" + op
}
