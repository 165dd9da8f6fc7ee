package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sensei-hq/sensei/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		store := cache.NewMemoryStore(cache.WithDefaultTTL(time.Minute))
		ctx := context.Background()

		Convey("When a value is put and read back within its TTL", func() {
			So(store.Put(ctx, "k", "v", time.Minute), ShouldBeNil)
			v, ok, err := store.Get(ctx, "k")

			Convey("Then the round trip succeeds", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "v")
			})
		})

		Convey("When a value's TTL expires", func() {
			So(store.Put(ctx, "short", "v", 20*time.Millisecond), ShouldBeNil)
			time.Sleep(40 * time.Millisecond)
			_, ok, err := store.Get(ctx, "short")

			Convey("Then the key is absent without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a key was never written", func() {
			_, ok, err := store.Get(ctx, "missing")

			Convey("Then the miss is not an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a key is deleted", func() {
			So(store.Put(ctx, "gone", 1, time.Minute), ShouldBeNil)
			So(store.Delete(ctx, "gone"), ShouldBeNil)
			_, ok, _ := store.Get(ctx, "gone")

			Convey("Then it is absent", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			err := store.Put(canceled, "k", "v", time.Minute)

			Convey("Then the failure is a cache error, never a panic", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, cache.ErrCache), ShouldBeTrue)
			})
		})
	})
}

func TestCacheKeys(t *testing.T) {
	Convey("Given the key builders", t, func() {
		Convey("Then suggestion and model keys occupy separate namespaces", func() {
			So(cache.SuggestionKey("emp-1"), ShouldEqual, "suggestions:emp-1")
			So(cache.ModelKey("scorer-v1"), ShouldEqual, "model:scorer-v1")
			So(cache.SuggestionKey("x"), ShouldNotEqual, cache.ModelKey("x"))
		})
	})
}
