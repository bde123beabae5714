// Package idempotency запоминает успешные ответы по ключу Idempotency-Key,
// чтобы повтор запроса не проводил поставку второй раз.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const prefix = "idem:"

// ErrKeyReused — ключ уже использован с другим телом запроса.
var ErrKeyReused = errors.New("idempotency key reused with a different request")

type Response struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// Success — ответ, который стоит запомнить.
func (r Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}

// Fingerprint — отпечаток тела запроса, хранится рядом с ответом.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type Store struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	log   *slog.Logger
	group singleflight.Group
}

func New(rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *Store {
	return &Store{rdb: rdb, ttl: ttl, log: log}
}

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Do возвращает сохранённый ответ для key или выполняет fn. Одновременные
// запросы с одним ключом в пределах процесса выполняют fn один раз.
// replayed — ответ взят из кэша или у соседнего запроса. Если ключ уже
// сохранён с другим fingerprint, возвращается ErrKeyReused.
func (s *Store) Do(ctx context.Context, key, fingerprint string, fn func() (Response, error)) (resp Response, replayed bool, err error) {
	k := prefix + key

	cached, err := s.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(cached, &resp); err != nil {
			return Response{}, false, fmt.Errorf("decode cached response: %w", err)
		}
		if resp.Fingerprint != fingerprint {
			return Response{}, false, ErrKeyReused
		}
		return resp, true, nil
	case !errors.Is(err, redis.Nil):
		return Response{}, false, fmt.Errorf("read idempotency key: %w", err)
	}

	// shared выставляется всем участникам, поэтому исполнителя fn
	// отмечаем сами
	leader := false
	v, err, _ := s.group.Do(k, func() (any, error) {
		leader = true
		resp, err := fn()
		if err != nil {
			return Response{}, err
		}
		resp.Fingerprint = fingerprint
		if resp.Success() {
			s.store(ctx, k, resp)
		}
		return resp, nil
	})
	resp, _ = v.(Response)
	if err != nil {
		return resp, false, err
	}
	if !leader && resp.Fingerprint != fingerprint {
		return Response{}, false, ErrKeyReused
	}
	return resp, !leader, nil
}

// store сохраняет ответ. Ошибка только логируется: поставка уже
// проведена, и клиент должен получить её настоящий результат.
func (s *Store) store(ctx context.Context, k string, resp Response) {
	payload, err := json.Marshal(resp)
	if err == nil {
		err = s.rdb.Set(ctx, k, payload, s.ttl).Err()
	}
	if err != nil {
		s.log.Warn("store idempotency key failed", "key", k, "err", err)
	}
}
