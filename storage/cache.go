package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

type backend interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	CreateTask(ctx context.Context, task *domain.Task) error
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Cache wraps a Storage instance with Redis-backed caching for read
// operations. Writes pass through to the backing storage and evict.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL. A nil client or zero TTL disables caching while keeping the
// wrapper usable.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	if tasks, ok := c.loadTasksFromCache(ctx); ok {
		return tasks, nil
	}

	tasks, err := c.base.FetchTasks(ctx)
	if err != nil {
		return nil, err
	}

	c.storeTasks(ctx, tasks)
	return tasks, nil
}

func (c *Cache) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if task, ok := c.loadTaskFromCache(ctx, id); ok {
		return task, nil
	}

	task, err := c.base.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}

	c.storeTask(ctx, task)
	return task, nil
}

func (c *Cache) CreateTask(ctx context.Context, task *domain.Task) error {
	if err := c.base.CreateTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.ID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, task *domain.Task) error {
	if err := c.base.UpdateTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.ID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *Cache) loadTasksFromCache(ctx context.Context) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey()).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey()).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) loadTaskFromCache(ctx context.Context, id string) (domain.Task, bool) {
	if c.redis == nil {
		return domain.Task{}, false
	}
	data, err := c.redis.Get(ctx, taskCacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, taskCacheKey(id)).Err()
		}
		return domain.Task{}, false
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		_ = c.redis.Del(ctx, taskCacheKey(id)).Err()
		return domain.Task{}, false
	}
	return task, true
}

func (c *Cache) storeTasks(ctx context.Context, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(), data, c.ttl).Err()
}

func (c *Cache) storeTask(ctx context.Context, task domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, taskCacheKey(task.ID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, id string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(), taskCacheKey(id)).Result()
}

func tasksCacheKey() string {
	return "taskboard:tasks"
}

func taskCacheKey(id string) string {
	return "taskboard:task:" + id
}
