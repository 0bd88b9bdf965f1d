package misc

import "testing"

func TestStringLimit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "hello", n: 10, want: "hello"},
		{in: "hello world", n: 8, want: "hello..."},
		{in: "hello", n: 3, want: "hel"},
		{in: "hi", n: 3, want: "hi"},
		{in: "hello", n: 0, want: ""},
		{in: "hello", n: -1, want: ""},
	}
	for _, tt := range tests {
		if got := StringLimit(tt.in, tt.n); got != tt.want {
			t.Errorf("StringLimit(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBytesLimit(t *testing.T) {
	t.Parallel()
	if got, want := string(BytesLimit([]byte("hello world"), 8)), "hello..."; got != want {
		t.Errorf("BytesLimit = %q, want %q", got, want)
	}
	if got := BytesLimit([]byte("hello"), -1); got != nil {
		t.Errorf("BytesLimit with negative limit = %q, want nil", got)
	}
}

func TestMinMax(t *testing.T) {
	t.Parallel()
	if got, want := Min(3, 5), 3; got != want {
		t.Errorf("Min(3, 5) = %d, want %d", got, want)
	}
	if got, want := Max(3.5, 5.5), 5.5; got != want {
		t.Errorf("Max(3.5, 5.5) = %v, want %v", got, want)
	}
	if got, want := Min("a", "b"), "a"; got != want {
		t.Errorf("Min(a, b) = %q, want %q", got, want)
	}
}
