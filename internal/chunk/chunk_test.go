package chunk

import "testing"

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    []string
		size     int
		wantLens []int
	}{
		{name: "empty input", items: nil, size: 10, wantLens: nil},
		{name: "fits in one batch", items: []string{"a", "b", "c"}, size: 10, wantLens: []int{3}},
		{name: "exact multiple", items: []string{"a", "b", "c", "d"}, size: 2, wantLens: []int{2, 2}},
		{name: "short tail", items: []string{"a", "b", "c", "d", "e"}, size: 2, wantLens: []int{2, 2, 1}},
		{name: "size one", items: []string{"a", "b"}, size: 1, wantLens: []int{1, 1}},
		{name: "invalid size", items: []string{"a"}, size: 0, wantLens: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Split(tt.items, tt.size)
			if len(got) != len(tt.wantLens) {
				t.Fatalf("Split() returned %d batches, want %d", len(got), len(tt.wantLens))
			}

			var flattened []string
			for i, batch := range got {
				if len(batch) != tt.wantLens[i] {
					t.Fatalf("batch %d has %d items, want %d", i, len(batch), tt.wantLens[i])
				}
				flattened = append(flattened, batch...)
			}

			for i, item := range flattened {
				if item != tt.items[i] {
					t.Fatalf("flattened[%d] = %q, want %q", i, item, tt.items[i])
				}
			}
		})
	}
}
