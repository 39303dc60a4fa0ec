// Package throttlevalkey keeps throttle state in ValKey so that every replica
// sees the same lockouts.
package throttlevalkey

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/access-gate/internal/throttle"
)

const (
	objectTypeFailures = "failures"
	objectTypeLock     = "lock"
)

// incrementScript counts a failure and gives the counter the window as its
// expiry when it has none, in one step.
var incrementScript = valkey.NewLuaScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

type Store struct {
	valkey valkey.Client
	prefix string
}

var _ throttle.Store = (*Store)(nil)

func NewStore(valkeyClient valkey.Client, prefix string) *Store {
	return &Store{
		valkey: valkeyClient,
		prefix: strings.TrimSuffix(prefix, ":"),
	}
}

func (s *Store) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := s.key(objectTypeFailures, key)

	ms := strconv.FormatInt(window.Milliseconds(), 10)
	count, err := incrementScript.Exec(ctx, s.valkey, []string{k}, []string{ms}).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("executing increment script: %w", err)
	}

	return count, nil
}

func (s *Store) Lock(ctx context.Context, key string, d time.Duration) error {
	k := s.key(objectTypeLock, key)
	if err := s.valkey.Do(ctx, s.valkey.B().Set().Key(k).Value("1").PxMilliseconds(d.Milliseconds()).Build()).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *Store) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	k := s.key(objectTypeLock, key)

	// PTTL answers -2 for a missing key and -1 for a key without expiry.
	ms, err := s.valkey.Do(ctx, s.valkey.B().Pttl().Key(k).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("executing pttl command: %w", err)
	}
	if ms <= 0 {
		return 0, nil
	}

	return time.Duration(ms) * time.Millisecond, nil
}

func (s *Store) Reset(ctx context.Context, key string) error {
	cmd := s.valkey.B().Del().Key(s.key(objectTypeFailures, key), s.key(objectTypeLock, key)).Build()
	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *Store) key(objectType, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, objectType, id)
}
