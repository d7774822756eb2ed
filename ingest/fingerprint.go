package ingest

import (
	"fmt"
	"strconv"

	"hydra/core"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the three tables of log in row order. Attributes are not
// part of the fingerprint since discovery never reads them.
func Fingerprint(log *core.Log) string {
	d := xxhash.New()
	if log == nil {
		return fmt.Sprintf("%016x", d.Sum64())
	}

	field := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}

	field("events")
	for _, e := range log.Events {
		field(e.ID)
		field(e.Activity)
		field(strconv.FormatInt(e.Timestamp.UnixNano(), 10))
	}
	field("objects")
	for _, o := range log.Objects {
		field(o.ID)
		field(o.Type)
	}
	field("relations")
	for _, r := range log.Relations {
		field(r.EventID)
		field(r.ObjectID)
		field(r.Qualifier)
	}

	return fmt.Sprintf("%016x", d.Sum64())
}
