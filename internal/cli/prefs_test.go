package cli

import "testing"

func TestValidComponent(t *testing.T) {
	for _, name := range prefComponents {
		if !validComponent(name) {
			t.Errorf("%q should be a valid component", name)
		}
	}
	for _, name := range []string{"", "Backend", "kafka", "slack"} {
		if validComponent(name) {
			t.Errorf("%q should not be a valid component", name)
		}
	}
}
