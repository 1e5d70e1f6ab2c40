// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedding

import (
	"context"
	"time"
)

// embedWithRetry runs one provider round trip for a batch, retrying failures
// under the client's retry policy: retryAttempts tries, retryDelay before the
// second try and doubling after that. A response with the wrong number of
// vectors counts as a failure too. Cancellation wins over the backoff sleep.
func (c *Client) embedWithRetry(ctx context.Context, batchTexts []string) ([][]float32, error) {
	var lastErr error
	delay := c.retryDelay

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vectors, err := c.embedder.EmbedTexts(ctx, batchTexts)
		if err == nil && len(vectors) != len(batchTexts) {
			err = ErrBatchShape
		}
		if err == nil {
			if attempt > 1 {
				c.logger.Debug("batch succeeded after retry", "attempt", attempt)
			}
			return vectors, nil
		}

		lastErr = err
		if attempt == c.retryAttempts {
			break
		}
		c.logger.Debug("batch failed, backing off",
			"attempt", attempt, "attempts", c.retryAttempts, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, lastErr
}
