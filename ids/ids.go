package ids

import (
	"strings"

	"github.com/rs/xid"
)

// NewId returns a sortable entity id with a type prefix, e.g. usr_9m4e2mr0ui3e8a215n4g.
func NewId(prefix string) string {
	guid := xid.New()
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix + guid.String()
}
