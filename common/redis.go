package common

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/housepower/redwatch/model"
	"github.com/pkg/errors"
)

// RedisDialer opens a short-lived connection. Tests swap it for a fake.
type RedisDialer func(ctx context.Context, addr, password string, timeout time.Duration) (redis.Conn, error)

// ConnectRedis dials addr with connect, read and write deadlines all bounded by timeout.
func ConnectRedis(ctx context.Context, addr, password string, timeout time.Duration) (redis.Conn, error) {
	opts := []redis.DialOption{
		redis.DialConnectTimeout(timeout),
		redis.DialReadTimeout(timeout),
		redis.DialWriteTimeout(timeout),
	}
	if password != "" {
		opts = append(opts, redis.DialPassword(password))
	}
	conn, err := redis.DialContext(ctx, "tcp", addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return conn, nil
}

// IsReplyError reports whether err is an error reply sent by the server, as
// opposed to a transport failure.
func IsReplyError(err error) bool {
	var re redis.Error
	return errors.As(err, &re)
}

// ProbeError wraps a failed exchange with addr. Error replies and replies of an
// unexpected shape are Protocol errors, anything else is Unreachable.
func ProbeError(addr string, err error) error {
	kind := model.Unreachable
	if IsReplyError(err) || strings.HasPrefix(errors.Cause(err).Error(), "redigo: ") {
		kind = model.Protocol
	}
	return &model.ProbeError{Kind: kind, Addr: addr, Err: err}
}

// ParseInfo splits an INFO reply into key/value pairs. Section headers and
// blank lines are skipped.
func ParseInfo(info string) map[string]string {
	m := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		m[line[:idx]] = line[idx+1:]
	}
	return m
}

func InfoInt64(m map[string]string, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// KeyspaceKeys sums keys=N over every dbX line of an INFO keyspace section.
func KeyspaceKeys(m map[string]string) (int64, bool) {
	var total int64
	var found bool
	for k, v := range m {
		if !strings.HasPrefix(k, "db") {
			continue
		}
		if _, err := strconv.Atoi(k[2:]); err != nil {
			continue
		}
		for _, field := range strings.Split(v, ",") {
			kv := strings.SplitN(field, "=", 2)
			if len(kv) == 2 && kv[0] == "keys" {
				if n, err := strconv.ParseInt(kv[1], 10, 64); err == nil {
					total += n
					found = true
				}
			}
		}
	}
	return total, found
}
