package repository

import (
	"context"
	"encoding/json"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisOperationLogStore keeps the newest operation logs in a capped list.
type RedisOperationLogStore struct {
	rdb     *redis.Client
	listKey string
	listMax int
}

func NewRedisOperationLogStore(rdb *redis.Client, listKey string, listMax int) *RedisOperationLogStore {
	if listKey == "" {
		listKey = "oplog:records"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisOperationLogStore{
		rdb:     rdb,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisOperationLogStore) Save(ctx context.Context, record *model.OperationLog) error {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.listKey, payload)
		pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
		return nil
	})
	return err
}

// Recent returns up to limit records, newest first. Entries that no longer
// decode are skipped.
func (r *RedisOperationLogStore) Recent(ctx context.Context, limit int) ([]*model.OperationLog, error) {
	if limit <= 0 || limit > r.listMax {
		limit = 100
	}
	items, err := r.rdb.LRange(ctx, r.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*model.OperationLog, 0, len(items))
	for _, raw := range items {
		var record model.OperationLog
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}
