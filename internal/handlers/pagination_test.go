package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 10 {
		t.Fatalf("expected defaults 1/10, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsExplicit(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 25 {
		t.Fatalf("expected 3/25, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsClampsOversizedLimit(t *testing.T) {
	page, limit, err := parsePaginationParams("1", "5000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != maxPageSize {
		t.Fatalf("expected limit clamped to %d, got %d/%d", maxPageSize, page, limit)
	}
}

func TestParsePaginationParamsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		page  string
		limit string
	}{
		{"non-numeric page", "abc", "10"},
		{"zero page", "0", "10"},
		{"negative page", "-1", "10"},
		{"non-numeric limit", "1", "xyz"},
		{"zero limit", "1", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := parsePaginationParams(tc.page, tc.limit); err == nil {
				t.Fatalf("expected error for page=%q limit=%q", tc.page, tc.limit)
			}
		})
	}
}
