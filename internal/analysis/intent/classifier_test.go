package intent

import "testing"

func TestClassifyPriorityOrder(t *testing.T) {
	label := Classify("hello, what about luxury")
	if label != Greeting {
		t.Fatalf("expected greeting to win, got %s", label)
	}
}

func TestClassifyBuckets(t *testing.T) {
	cases := []struct {
		in   string
		want Label
	}{
		{"a trip I can afford", Budget},
		{"premium suites only please", Luxury},
		{"thrill seeker here", Adventure},
		{"show me the local culture", Culture},
		{"plan me a week away", Default},
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestClassifySubstringContainment(t *testing.T) {
	// "high" contains "hi", so containment matching reads it as a greeting.
	if label := Classify("prices are high in July"); label != Greeting {
		t.Fatalf("expected greeting via substring, got %s", label)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if label := Classify("LUXURY ONLY"); label != Luxury {
		t.Fatalf("expected luxury, got %s", label)
	}
}
