package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubcommandsRegisteredOnce(t *testing.T) {
	seen := map[string]int{}
	for _, c := range rootCmd.Commands() {
		seen[c.Name()]++
	}
	for _, name := range []string{"api", "migrate", "republish-tickets"} {
		assert.Equal(t, 1, seen[name], name)
	}
}
