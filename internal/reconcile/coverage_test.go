package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUntracked(t *testing.T) {
	tests := []struct {
		name    string
		all     []string
		tracked []string
		want    []string
	}{
		{"one missing", []string{"A", "B", "C"}, []string{"A", "C"}, []string{"B"}},
		{"equal sets", []string{"A", "B"}, []string{"A", "B"}, []string{}},
		{"tracked not upstream", []string{"A"}, []string{"A", "Z"}, []string{}},
		{"nothing tracked", []string{"B", "A"}, nil, []string{"A", "B"}},
		{"empty upstream", nil, []string{"A"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := NameSet(tt.all...)
			tracked := NameSet(tt.tracked...)

			got := FindUntracked(all, tracked)
			assert.Equal(t, tt.want, SortedNames(got))

			// inputs are not mutated
			assert.Len(t, all, len(tt.all))
			assert.Len(t, tracked, len(tt.tracked))
		})
	}
}

func BenchmarkFindUntracked(b *testing.B) {
	all := make(map[string]struct{}, 1000)
	tracked := make(map[string]struct{}, 900)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("Mod%04d", i)
		all[name] = struct{}{}
		if i%10 != 0 {
			tracked[name] = struct{}{}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindUntracked(all, tracked)
	}
}
