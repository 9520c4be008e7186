// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/focus/co"
)

func TestGoes(t *testing.T) {
	var (
		goes  co.Goes
		count atomic.Int32
	)
	release := make(chan struct{})
	for range 5 {
		goes.Go(func() {
			<-release
			count.Add(1)
		})
	}

	done := goes.Done()
	select {
	case <-done:
		t.Fatal("done before release")
	case <-time.After(10 * time.Millisecond):
	}

	close(release)
	goes.Wait()
	assert.Equal(t, int32(5), count.Load())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}
