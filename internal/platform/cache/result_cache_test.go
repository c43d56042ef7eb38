package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"plantid_backend/internal/feature/identification/domain/entity"
)

var ficus = entity.PlantDetails{
	Name:           "Rubber plant",
	ScientificName: "Ficus elastica",
	Description:    "A rubber plant.",
	Confidence:     87,
	ImageURL:       entity.PlaceholderImageURL,
	Provider:       "plantnet",
}

// TestNewResultCache_Defaults はデフォルト値（TTLとnamespace）が正しく設定されることを検証します。
func TestNewResultCache_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		ttl               time.Duration
		namespace         string
		expectedTTL       time.Duration
		expectedNamespace string
	}{
		{"default values when zero/empty", 0, "", time.Hour, "plantid"},
		{"negative ttl uses default", -1 * time.Minute, "", time.Hour, "plantid"},
		{"custom values preserved", 10 * time.Minute, "custom", 10 * time.Minute, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewResultCache(nil, tt.ttl, tt.namespace)
			if c.ttl != tt.expectedTTL {
				t.Errorf("expected TTL %v, got %v", tt.expectedTTL, c.ttl)
			}
			if c.namespace != tt.expectedNamespace {
				t.Errorf("expected namespace %q, got %q", tt.expectedNamespace, c.namespace)
			}
		})
	}
}

// TestResultCache_NilRedis はRedisがnilの場合に常にミスとなりSetが何もしないことを検証します。
func TestResultCache_NilRedis(t *testing.T) {
	t.Parallel()

	c := NewResultCache(nil, time.Minute, "")
	got, err := c.Get(context.Background(), "abc")
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %v, %v", got, err)
	}
	if err := c.Set(context.Background(), "abc", ficus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestResultCache_Get_Hit はキャッシュヒット時に保存済みの結果を返すことを検証します。
func TestResultCache_Get_Hit(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	b, _ := json.Marshal(ficus)
	mock.ExpectGet("plantid:result:abc").SetVal(string(b))

	c := NewResultCache(rdb, time.Hour, "plantid")
	got, err := c.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != ficus {
		t.Errorf("expected %+v, got %+v", ficus, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestResultCache_Get_Miss はキー不在時にnilを返すことを検証します。
func TestResultCache_Get_Miss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("plantid:result:abc").RedisNil()

	c := NewResultCache(rdb, time.Hour, "plantid")
	got, err := c.Get(context.Background(), "abc")
	if err != nil || got != nil {
		t.Fatalf("expected miss, got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestResultCache_Get_Error はRedisエラーが呼び出し元へ返されることを検証します。
func TestResultCache_Get_Error(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	redisErr := errors.New("connection refused")
	mock.ExpectGet("plantid:result:abc").SetErr(redisErr)

	c := NewResultCache(rdb, time.Hour, "plantid")
	_, err := c.Get(context.Background(), "abc")
	if !errors.Is(err, redisErr) {
		t.Errorf("expected error %v, got %v", redisErr, err)
	}
}

// TestResultCache_Get_CorruptedEntry は破損したキャッシュを削除してミス扱いにすることを検証します。
func TestResultCache_Get_CorruptedEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"invalid json", "invalid json"},
		{"incomplete record", `{"name":"","confidence":500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rdb, mock := redismock.NewClientMock()
			defer func() { _ = rdb.Close() }()

			mock.ExpectGet("plantid:result:abc").SetVal(tt.value)
			mock.ExpectDel("plantid:result:abc").SetVal(1)

			c := NewResultCache(rdb, time.Hour, "plantid")
			got, err := c.Get(context.Background(), "abc")
			if err != nil || got != nil {
				t.Fatalf("expected miss, got %v, %v", got, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled mock expectations: %v", err)
			}
		})
	}
}

// TestResultCache_Set はJSONエンコードした結果をTTL付きで保存することを検証します。
func TestResultCache_Set(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	b, _ := json.Marshal(ficus)
	mock.ExpectSet("plantid:result:abc", b, 5*time.Minute).SetVal("OK")

	c := NewResultCache(rdb, 5*time.Minute, "plantid")
	if err := c.Set(context.Background(), "abc", ficus); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled mock expectations: %v", err)
	}
}

// TestSafe はsafe関数がRedisキーで問題となる文字を正しくエスケープすることを検証します。
func TestSafe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"abc123", "abc123"},
		{"a b", "a_b"},
		{"key:value", "key_value"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := safe(tt.input); got != tt.expected {
				t.Errorf("safe(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
