package platform

import "testing"

func TestKernelSupportsTFO(t *testing.T) {
	cases := map[string]bool{
		"5.15.0-91-generic": true,
		"3.7.1":             true,
		"3.7.0":             false,
		"3.7":               false,
		"2.6.32-754.el6":    false,
		"4.4.302+":          true,
		"":                  false,
		"garbage":           false,
	}
	for release, want := range cases {
		if got := kernelSupportsTFO(release); got != want {
			t.Fatalf("release %q: got %v, want %v", release, got, want)
		}
	}
}

func TestNormalizeKernelRelease(t *testing.T) {
	cases := map[string]string{
		"6.8.0-45-generic": "v6.8.0",
		"4.19.112.1":       "v4.19.112",
		"5.10":             "v5.10",
		"x1":               "",
	}
	for release, want := range cases {
		if got := normalizeKernelRelease(release); got != want {
			t.Fatalf("release %q: got %q, want %q", release, got, want)
		}
	}
}

func TestOSVersionIsNotEmpty(t *testing.T) {
	if OSVersion() == "" {
		t.Fatalf("expected non-empty os version")
	}
}
