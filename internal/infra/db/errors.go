package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	repo "ebake/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classify はドライバのエラーを「接続不可」「タイムアウト」に振り分ける。
// どちらでもなければそのまま返す。
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrStoreUnavailable) || errors.Is(err, repo.ErrStoreTimeout) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", repo.ErrStoreTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// query_canceled（statement_timeout）
		case pgErr.Code == "57014":
			return fmt.Errorf("%w: %v", repo.ErrStoreTimeout, err)
		// connection_exception / admin_shutdown / cannot_connect_now
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P03":
			return fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", repo.ErrStoreTimeout, err)
		}
		return fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", repo.ErrStoreUnavailable, err)
	}

	return err
}
