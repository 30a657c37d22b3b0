package loader

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipPolicy(t *testing.T) {
	const root = "/repo/src/main.ts"

	tests := []struct {
		name     string
		deny     DenyList
		file     string
		expected bool
	}{
		{"no deny-list", DenyList{}, "/repo/src/util.ts", false},
		{"wildcard skips dependencies", DenyList{All: true}, "/repo/src/util.ts", true},
		{"wildcard keeps the root", DenyList{All: true}, root, false},
		{"substring match", DenyList{Substrings: []string{"vendor/"}}, "/repo/vendor/lib.ts", true},
		{"substring miss", DenyList{Substrings: []string{"vendor/"}}, "/repo/src/util.ts", false},
		{"any substring", DenyList{Substrings: []string{"gen/", "vendor/"}}, "/repo/vendor/lib.ts", true},
		{"substring applies to the root", DenyList{Substrings: []string{"src/"}}, root, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := skipPolicy{ledger: NewLedger(), deny: tt.deny, rootFile: root}

			assert.Equal(t, tt.expected, policy.shouldSkip(tt.file))
		})
	}
}

func TestSkipPolicy_MarksBeforeConsultingDenyList(t *testing.T) {
	ledger := NewLedger()
	denying := skipPolicy{ledger: ledger, deny: DenyList{Substrings: []string{"vendor/"}}, rootFile: "/repo/a.ts"}
	admitting := skipPolicy{ledger: ledger, rootFile: "/repo/b.ts"}

	assert.True(t, denying.shouldSkip("/repo/vendor/lib.ts"))
	assert.True(t, ledger.Has("/repo/vendor/lib.ts"))
	assert.True(t, admitting.shouldSkip("/repo/vendor/lib.ts"), "a denied file is never generated later")
}

func TestSkipPolicy_AlreadyGenerated(t *testing.T) {
	ledger := NewLedger()
	policy := skipPolicy{ledger: ledger, rootFile: "/repo/main.ts"}

	assert.False(t, policy.shouldSkip("/repo/shared.ts"))
	assert.True(t, policy.shouldSkip("/repo/shared.ts"))
	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_ConcurrentMarkAdmitsOnce(t *testing.T) {
	ledger := NewLedger()
	const workers = 32
	const files = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := make(map[string]int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := 0; f < files; f++ {
				fileName := fmt.Sprintf("/repo/file%d.ts", f)
				if ledger.Mark(fileName) {
					mu.Lock()
					admitted[fileName]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, admitted, files)
	for fileName, count := range admitted {
		assert.Equal(t, 1, count, fileName)
	}
	assert.Equal(t, files, ledger.Len())
}

func TestDenyList_Empty(t *testing.T) {
	assert.True(t, DenyList{}.Empty())
	assert.False(t, DenyList{All: true}.Empty())
	assert.False(t, DenyList{Substrings: []string{"x"}}.Empty())
}
