// Package resource is a small resource database in the style of the X
// resource manager: modules declare default lines and command-line options,
// the host layers config-file values and flags on top, and modules read
// their settings back by name during initialization.
package resource

import (
	"flag"
	"strconv"
	"strings"

	appLog "colourclock/internal/log"
)

// DB maps resource names to string values. Names are case-insensitive and
// carry no binding prefix: ".delay", "*delay" and "Delay" are the same key.
type DB struct {
	values map[string]string
}

// New returns a database seeded with default lines of the form
// ".name: value" or "*name: value". Malformed lines are logged and skipped.
func New(defaults ...string) *DB {
	db := &DB{values: make(map[string]string)}
	for _, line := range defaults {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			appLog.Error("resource: malformed default", nil, "line", line)
			continue
		}
		db.Set(name, value)
	}
	return db
}

// Set stores value under name, replacing any previous value.
func (db *DB) Set(name, value string) {
	key := normalize(name)
	if key == "" {
		return
	}
	db.values[key] = strings.TrimSpace(value)
}

// Merge sets every entry of m.
func (db *DB) Merge(m map[string]string) {
	for k, v := range m {
		db.Set(k, v)
	}
}

// String returns the value stored under name.
func (db *DB) String(name string) (string, bool) {
	v, ok := db.values[normalize(name)]
	return v, ok
}

// Integer returns the value stored under name parsed as an integer.
// Missing resources yield 0; unparseable ones are logged and yield 0.
func (db *DB) Integer(name string) int {
	v, ok := db.String(name)
	if !ok || v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		appLog.Error("resource: not an integer", err, "name", name, "value", v)
		return 0
	}
	return n
}

// Names returns the stored resource names in no particular order.
func (db *DB) Names() []string {
	names := make([]string, 0, len(db.values))
	for k := range db.values {
		names = append(names, k)
	}
	return names
}

func normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, ".*")
	return strings.ToLower(name)
}

// Option maps a command-line flag onto a resource.
type Option struct {
	// Flag is the option name without the leading dash.
	Flag string
	// Resource is the resource name the value is stored under. The
	// argument following the flag becomes the value ("-delay 500").
	Resource string
	// Usage is shown by -help.
	Usage string
}

// Bind registers opts on fs so that parsing fs writes into db.
// Flags that are already defined on fs are skipped.
func (db *DB) Bind(fs *flag.FlagSet, opts []Option) {
	for _, opt := range opts {
		if fs.Lookup(opt.Flag) != nil {
			continue
		}
		usage := opt.Usage
		if usage == "" {
			usage = "sets the " + normalize(opt.Resource) + " resource"
		}
		fs.Func(opt.Flag, usage, func(s string) error {
			db.Set(opt.Resource, s)
			return nil
		})
	}
}
