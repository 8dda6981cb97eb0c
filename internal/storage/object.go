package storage

import (
	"path"
	"strings"
)

// cacheControl is set on uploaded images; keys embed a timestamp so objects
// never change in place.
const cacheControl = "public, max-age=86400"

// objectKeys maps storage keys to bucket object names below an optional prefix.
type objectKeys struct {
	prefix string
}

func newObjectKeys(prefix string) objectKeys {
	return objectKeys{prefix: strings.Trim(strings.TrimSpace(prefix), "/")}
}

func (o objectKeys) object(key string) string {
	if o.prefix == "" {
		return key
	}
	return path.Join(o.prefix, key)
}

// dir is like object but keeps the trailing slash of directory prefixes.
func (o objectKeys) dir(prefix string) string {
	name := o.object(strings.TrimSuffix(prefix, "/"))
	return name + "/"
}
