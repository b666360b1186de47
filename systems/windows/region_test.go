package windows

import "testing"

func TestReadableRegion(t *testing.T) {
	const memReserve = 0x2000

	tests := []struct {
		name     string
		state    uint32
		protect  uint32
		readable bool
	}{
		{"readonly", memCommit, 0x02, true},
		{"readwrite", memCommit, 0x04, true},
		{"execute read", memCommit, 0x20, true},
		{"execute readwrite", memCommit, 0x40, true},
		{"noaccess", memCommit, pageNoAccess, false},
		{"execute only", memCommit, pageExecute, false},
		{"guard", memCommit, 0x04 | pageGuard, false},
		{"no protection", memCommit, 0, false},
		{"reserved", memReserve, 0x04, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if readable := readableRegion(test.state, test.protect); readable != test.readable {
				t.Errorf("readableRegion(0x%X, 0x%X) = %t", test.state, test.protect, readable)
			}
		})
	}
}
