package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// namespace scopes class ids generated from plugin ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("plugkit.justyntemme.github.io"))

// Info contains plugin metadata
type Info struct {
	ID       string // Unique plugin identifier (e.g., "com.example.myplugin")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Fx", "Instrument")
}

// UID returns the plugin's class id, a name-based SHA-1 UUID derived from ID.
// The same ID always yields the same UID.
func (i Info) UID() uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(i.ID))
}

// ClassID returns the UID as the raw 16 bytes host ABIs expect.
func (i Info) ClassID() [16]byte {
	return [16]byte(i.UID())
}

// ValidateUID checks that the plugin has an ID a class id can be derived from.
func (i Info) ValidateUID() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("plugin ID cannot be empty")
	}
	if strings.ContainsAny(i.ID, " \t\n") {
		return fmt.Errorf("plugin ID %q must not contain whitespace", i.ID)
	}
	return nil
}

func (i Info) String() string {
	if i.Version == "" {
		return fmt.Sprintf("%s (%s)", i.Name, i.ID)
	}
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.ID)
}
