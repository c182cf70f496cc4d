package sample

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeIsDigits(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 8; n++ {
		code := Code(r, n)
		require.Len(t, code, n)
		for _, ch := range code {
			require.True(t, ch >= '0' && ch <= '9')
		}
	}
}

func TestSMSContainsCode(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 20; i++ {
		require.True(t, strings.Contains(SMS(r, "4821"), "4821"))
	}
	require.Len(t, Templates("1"), len(templates))
}
