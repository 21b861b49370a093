package mongo

import (
	"net/url"
	"strings"

	constant "github.com/Junni007/Devconnector/devconnector/constants"
)

// databaseName picks the configured name, then the path of the connection
// string, then the service default.
func databaseName(configured, uri string) string {
	if configured != "" {
		return configured
	}

	if name := databaseFromURI(uri); name != "" {
		return name
	}

	return constant.DefaultDatabase
}

func databaseFromURI(uri string) string {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return ""
	}

	if parsed.Scheme != "mongodb" && parsed.Scheme != "mongodb+srv" {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimPrefix(parsed.Path, "/"))
	if err != nil {
		return ""
	}

	return name
}
