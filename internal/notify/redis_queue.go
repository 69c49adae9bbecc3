package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobsKey = "notify:jobs"

// RedisQueue is the durable Queue implementation: jobs survive a process
// restart and multiple workers can drain the same list.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	err = q.client.LPush(ctx, jobsKey, data).Err()
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		res, err := q.client.BRPop(ctx, 5*time.Second, jobsKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) { // timeout, poll again
				continue
			}

			return Job{}, fmt.Errorf("dequeue job: %w", err)
		}

		// BRPOP returns [key, value].
		var job Job

		err = json.Unmarshal([]byte(res[1]), &job)
		if err != nil {
			return Job{}, fmt.Errorf("unmarshal job: %w", err)
		}

		return job, nil
	}
}
