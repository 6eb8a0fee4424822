package automod

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bluesky-social/fedimod/mastodon"

	"github.com/stretchr/testify/assert"
)

func TestMockModerationClientConcurrentReports(t *testing.T) {
	assert := assert.New(t)
	client := &MockModerationClient{Fail: map[string]bool{}}

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := client.CreateReport(context.Background(), &mastodon.CreateReportInput{AccountID: fmt.Sprintf("%d", i)})
			if assert.NoError(err) {
				ids[i] = r.ID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(seen[id], "duplicate report id %s", id)
		seen[id] = true
	}
	assert.Len(client.Actions(), 50)
}
