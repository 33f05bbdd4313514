package database

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/go-sql-driver/mysql"
    "github.com/hashicorp/go-hclog"
)

// Options describe the MySQL connection.
type Options struct {
    User, Pass, Host, Port, Name string
    // Wait is how long Open keeps retrying the first ping while the
    // database container is still starting.
    Wait time.Duration
}

// DSN renders the driver connection string.  parseTime maps DATETIME to
// time.Time; loc=UTC keeps show times consistent.
func (o Options) DSN() string {
    c := mysql.NewConfig()
    c.User = o.User
    c.Passwd = o.Pass
    c.Net = "tcp"
    c.Addr = o.Host + ":" + o.Port
    c.DBName = o.Name
    c.ParseTime = true
    c.Loc = time.UTC
    c.Params = map[string]string{"charset": "utf8mb4"}
    return c.FormatDSN()
}

// Open connects to MySQL and waits until it answers a ping.
func Open(ctx context.Context, o Options, logger hclog.Logger) (*sql.DB, error) {
    db, err := sql.Open("mysql", o.DSN())
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    if err := waitForDB(ctx, db, o.Wait, time.Second, logger); err != nil {
        _ = db.Close()
        return nil, err
    }
    return db, nil
}

// pinger is satisfied by *sql.DB.
type pinger interface {
    PingContext(ctx context.Context) error
}

// waitForDB pings until success or until wait elapses.
func waitForDB(ctx context.Context, db pinger, wait, every time.Duration, logger hclog.Logger) error {
    deadline := time.Now().Add(wait)
    for {
        pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
        err := db.PingContext(pctx)
        cancel()
        if err == nil {
            logger.Info("database available")
            return nil
        }
        if time.Now().After(deadline) {
            return fmt.Errorf("database unavailable after %s: %w", wait, err)
        }
        logger.Info("database unavailable, waiting", "error", err)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(every):
        }
    }
}
