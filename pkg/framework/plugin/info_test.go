package plugin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUID(t *testing.T) {
	ids := []string{
		"com.plugkit.testplugin.gainpan",
		"com.company1.plugin1",
		"com.company1.plugin2",
		"com.company2.plugin1",
	}

	seen := make(map[uuid.UUID]string)
	for _, id := range ids {
		info := Info{ID: id}
		uid := info.UID()

		assert.Equal(t, uid, info.UID(), "UID of %s must be stable", id)
		assert.Equal(t, uuid.Version(5), uid.Version())
		assert.Equal(t, uuid.RFC4122, uid.Variant())
		assert.Equal(t, [16]byte(uid), info.ClassID())
		assert.NoError(t, info.ValidateUID())

		if prev, dup := seen[uid]; dup {
			t.Errorf("UID collision between %s and %s", id, prev)
		}
		seen[uid] = id
	}
}

func TestValidateUID(t *testing.T) {
	for name, tt := range map[string]struct {
		id      string
		wantErr bool
	}{
		"valid":      {"com.example.plugin", false},
		"empty":      {"", true},
		"blank":      {"   ", true},
		"whitespace": {"com.example.my plugin", true},
	} {
		t.Run(name, func(t *testing.T) {
			err := Info{ID: tt.id}.ValidateUID()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{ID: "com.example.gain", Name: "Gain", Version: "1.0.0"}
	assert.Equal(t, "Gain 1.0.0 (com.example.gain)", info.String())
	info.Version = ""
	assert.Equal(t, "Gain (com.example.gain)", info.String())
}
