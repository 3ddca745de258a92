package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{name: "defaults", query: "", wantPage: 1, wantPageSize: DefaultPageSize, wantOffset: 0},
		{name: "explicit", query: "?page=3&page_size=10", wantPage: 3, wantPageSize: 10, wantOffset: 20},
		{name: "clamped page size", query: "?page_size=1000", wantPage: 1, wantPageSize: MaxPageSize, wantOffset: 0},
		{name: "negative page", query: "?page=-2", wantPage: 1, wantPageSize: DefaultPageSize, wantOffset: 0},
		{name: "garbage", query: "?page=abc&page_size=x", wantPage: 1, wantPageSize: DefaultPageSize, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/items"+tt.query, nil)
			got := ParsePaginationParams(req)
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize || got.Offset != tt.wantOffset {
				t.Errorf("ParsePaginationParams() = %+v, want page=%d size=%d offset=%d",
					got, tt.wantPage, tt.wantPageSize, tt.wantOffset)
			}
		})
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, 1, 10, 21)
	if resp.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", resp.TotalPages)
	}

	resp = NewPaginatedResponse(nil, 1, 10, 20)
	if resp.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", resp.TotalPages)
	}
}
