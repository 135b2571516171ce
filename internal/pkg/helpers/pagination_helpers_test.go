package helpers

import "testing"

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size int
		offset     uint64
		limit      int
	}{
		{1, 10, 0, 10},
		{3, 20, 40, 20},
		{0, 10, 0, 10},
		{2, 500, 10, DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Errorf("CalculateOffsetLimit(%d, %d) = (%d, %d), want (%d, %d)", tt.page, tt.size, offset, limit, tt.offset, tt.limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(42, 9, 10)
	if info.TotalPages != 5 || info.CurrentPage != 5 || info.TotalItems != 42 {
		t.Fatalf("info = %+v", info)
	}
	empty := NewPaginationInfo(0, 1, 10)
	if empty.TotalPages != 1 {
		t.Fatalf("empty info = %+v", empty)
	}
}
