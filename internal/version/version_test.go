package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.2.3"
	if got := String(); got != "postgen v1.2.3 (commit unknown, built unknown)" {
		t.Errorf("unexpected version string %q", got)
	}
}
