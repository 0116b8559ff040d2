package validation

import "testing"

func TestToBoolean(t *testing.T) {
	tests := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{nil, false, false},
		{"", false, false},
		{"   ", false, false},
		{"1", true, true},
		{"true", true, true},
		{"T", true, true},
		{"yes", true, true},
		{"on", true, true},
		{"0", false, true},
		{"no", false, true},
		{"banana", false, true},
		{true, true, true},
		{false, false, true},
		{1, true, true},
		{0, false, true},
	}
	for _, tt := range tests {
		got, ok := ToBoolean(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ToBoolean(%#v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBlank(t *testing.T) {
	blank := []any{nil, "", "  ", false, []string{}}
	for _, v := range blank {
		if !Blank(v) {
			t.Errorf("expected %#v to be blank", v)
		}
	}
	present := []any{"x", true, 0, []string{"a"}}
	for _, v := range present {
		if Blank(v) {
			t.Errorf("expected %#v to be present", v)
		}
	}
}
