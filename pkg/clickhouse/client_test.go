package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local", 9440)(cfg)
	WithDatabase("apexpick")(cfg)
	WithCredentials("svc", "p@ss")(cfg)
	WithAsyncInsert(true, true)(cfg)
	WithMaxExecutionTime(90 * time.Second)(cfg)

	u, err := url.Parse(BuildDSN(*cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9440" || u.Path != "/apexpick" {
		t.Fatalf("dsn = %s", u)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "svc" || pw != "p@ss" {
		t.Fatalf("credentials = %v", u.User)
	}
	q := u.Query()
	if q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("async settings = %v", q)
	}
	if q.Get("max_execution_time") != "90" || q.Get("dial_timeout") != "5s" {
		t.Fatalf("timeouts = %v", q)
	}
	if q.Has("write_timeout") {
		t.Fatalf("write_timeout must stay client side")
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("ch.local", 0)(cfg)
	WithHTTP(true)(cfg)
	u, err := url.Parse(BuildDSN(*cfg))
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "http" || u.Port() != "9000" || u.Query().Has("async_insert") {
		t.Fatalf("dsn = %s", u)
	}
}
