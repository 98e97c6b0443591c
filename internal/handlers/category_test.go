package handlers

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Home Decor", "home-decor"},
		{"  Wall Art  ", "wall-art"},
		{"Jewelry", "jewelry"},
		{"Hand Made Gifts", "hand-made-gifts"},
	}

	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
