package infrastructure

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryCacheSetGet(t *testing.T) {
	cache := NewInMemoryCache()

	cache.Set("charts:75::10", "payload", 5*time.Minute)

	value, found := cache.Get("charts:75::10")
	if !found {
		t.Fatal("la clé devrait être présente")
	}
	if value != "payload" {
		t.Errorf("Get() = %v, attendu payload", value)
	}
	if _, found := cache.Get("charts:13::10"); found {
		t.Error("une clé jamais écrite ne devrait pas être trouvée")
	}
}

func TestInMemoryCacheExpiration(t *testing.T) {
	cache := NewInMemoryCache()

	cache.Set("ephemere", "valeur", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, found := cache.Get("ephemere"); found {
		t.Error("une entrée expirée ne devrait plus être servie")
	}
	if cache.Has("ephemere") {
		t.Error("Has() devrait refléter l'expiration")
	}
}

func TestInMemoryCacheDeleteClear(t *testing.T) {
	cache := NewInMemoryCache()
	cache.Set("a", 1, time.Minute)
	cache.Set("b", 2, time.Minute)

	cache.Delete("a")
	if cache.Has("a") {
		t.Error("la clé supprimée ne devrait plus exister")
	}

	cache.Clear()
	if cache.Has("b") {
		t.Error("Clear() devrait vider le cache")
	}
}

func TestShardedCacheRepartitLesCles(t *testing.T) {
	cache := NewShardedCache(16)

	for i := 0; i < 100; i++ {
		cache.Set(fmt.Sprintf("key%d", i), i, time.Minute)
	}
	for i := 0; i < 100; i++ {
		value, found := cache.Get(fmt.Sprintf("key%d", i))
		if !found || value != i {
			t.Fatalf("key%d = (%v, %v), attendu (%d, true)", i, value, found, i)
		}
	}

	cache.Clear()
	if cache.Has("key42") {
		t.Error("Clear() devrait vider tous les shards")
	}
}

func TestShardedCacheNombreDeShardsInvalide(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("un nombre de shards non puissance de deux devrait paniquer")
		}
	}()
	NewShardedCache(12)
}

func TestCacheKeyBuilder(t *testing.T) {
	key := NewCacheKeyBuilder().
		Add("charts").
		Add("75").
		Add("75056").
		AddInt(10).
		Build()

	if key != "charts:75:75056:10" {
		t.Errorf("Build() = %q, attendu \"charts:75:75056:10\"", key)
	}
}

func TestCacheKeyBuilderPartiesVides(t *testing.T) {
	key := NewCacheKeyBuilder().
		Add("charts").
		Add("").
		Add("").
		AddInt(10).
		Build()

	other := NewCacheKeyBuilder().
		Add("charts").
		Add("75").
		Add("").
		AddInt(10).
		Build()

	if key == other {
		t.Error("deux sélections différentes devraient produire des clés différentes")
	}
}

// ========================================
// Benchmarks: InMemoryCache vs ShardedCache
// ========================================

// BenchmarkInMemoryCache_Get_HighContention teste Get avec haute contention
func BenchmarkInMemoryCache_Get_HighContention(b *testing.B) {
	cache := NewInMemoryCache()
	cache.Set("charts:::10", "payload", 5*time.Minute)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = cache.Get("charts:::10")
		}
	})
}

// BenchmarkShardedCache_Get_HighContention teste Get avec haute contention
func BenchmarkShardedCache_Get_HighContention(b *testing.B) {
	cache := NewShardedCache(16)
	cache.Set("charts:::10", "payload", 5*time.Minute)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = cache.Get("charts:::10")
		}
	})
}

// BenchmarkShardedCache_Mixed_80Read_20Write teste un mix 80% read / 20% write
func BenchmarkShardedCache_Mixed_80Read_20Write(b *testing.B) {
	cache := NewShardedCache(16)

	// Pré-remplir le cache avec des clés de sélections typiques
	for i := 0; i < 1000; i++ {
		cache.Set(fmt.Sprintf("charts:%d::10", i), "payload", 5*time.Minute)
	}

	b.ResetTimer()
	b.ReportAllocs()

	counter := 0
	var mu sync.Mutex

	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0
		for pb.Next() {
			localCounter++

			if localCounter%5 == 0 {
				mu.Lock()
				key := counter % 1000
				counter++
				mu.Unlock()

				cache.Set(fmt.Sprintf("charts:%d::10", key), "payload", 5*time.Minute)
			} else {
				_, _ = cache.Get(fmt.Sprintf("charts:%d::10", localCounter%1000))
			}
		}
	})
}
