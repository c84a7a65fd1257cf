package retrier

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mysqldrv "github.com/go-sql-driver/mysql"
)

// 退避参数：2秒起步、10秒封顶、带抖动，尝试次数由调用点给定（3~5）
const (
	initialInterval = 2 * time.Second
	maxInterval     = 10 * time.Second
)

// permanentError 终态错误：不再重试，原样返回
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent 将错误标记为终态（如唯一键冲突、文法错误）
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsDuplicateEntry MySQL 1062 唯一键冲突。开奖写入将其视为幂等成功。
func IsDuplicateEntry(err error) bool {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}

// IsRetriableSQL SQL侧可重试错误：连接超时/断开、死锁、丢失连接
func IsRetriableSQL(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1213, // 死锁
			1205, // 锁等待超时
			2006, // server has gone away
			2013: // lost connection
			return true
		}
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"i/o timeout",
		"invalid connection",
		"bad connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Do 以抖动指数退避执行 op，最多 maxAttempts 次。
// op 返回 Permanent 包装的错误或 classify 判定不可重试时立即终止。
func Do(ctx context.Context, maxAttempts int, classify func(error) bool, op func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // 以次数为界，不按时长截断

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return backoff.Permanent(perm.err)
		}
		if classify != nil && !classify(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
